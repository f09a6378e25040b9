package brewery

import (
	"encoding/json"
	"testing"
	"time"
)

const brockoppJSON = `{"id":"45b4f628-b1fb-4d61-baf9-29b557e987ad",` +
	`"name":"Brockopp Brewing","brewery_type":"nano",` +
	`"address_1":"114 Main St E","city":"Valley City",` +
	`"state_province":"North Dakota","postal_code":"58072-3450",` +
	`"country":"United States","longitude":"-98.00272896",` +
	`"latitude":"46.92586281",` +
	`"website_url":"https://www.facebook.com/BrockoppBrewing",` +
	`"state":"North Dakota","street":"114 Main St E"}`

func TestBrewery_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat *float64
		wantErr bool
	}{
		{
			name:    "string coordinates",
			input:   brockoppJSON,
			wantLat: floatPtr(46.92586281),
		},
		{
			name:    "numeric coordinates",
			input:   `{"id":"a","name":"A","brewery_type":"micro","latitude":46.5,"longitude":-98.1}`,
			wantLat: floatPtr(46.5),
		},
		{
			name:  "null coordinates",
			input: `{"id":"a","name":"A","brewery_type":"micro","latitude":null,"longitude":null}`,
		},
		{
			name:  "empty string coordinates",
			input: `{"id":"a","name":"A","brewery_type":"micro","latitude":"","longitude":""}`,
		},
		{
			name:    "garbage coordinates",
			input:   `{"id":"a","name":"A","brewery_type":"micro","latitude":"north"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Brewery
			err := json.Unmarshal([]byte(tt.input), &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			switch {
			case tt.wantLat == nil && b.Latitude != nil:
				t.Errorf("Latitude = %v, want nil", *b.Latitude)
			case tt.wantLat != nil && (b.Latitude == nil || *b.Latitude != *tt.wantLat):
				t.Errorf("Latitude = %v, want %v", b.Latitude, *tt.wantLat)
			}
		})
	}
}

func TestBrewery_UnmarshalJSON_KeepsFields(t *testing.T) {
	var b Brewery
	if err := json.Unmarshal([]byte(brockoppJSON), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if b.ID != "45b4f628-b1fb-4d61-baf9-29b557e987ad" {
		t.Errorf("ID = %q", b.ID)
	}
	if b.Type != TypeNano {
		t.Errorf("Type = %q, want %q", b.Type, TypeNano)
	}
	if b.Address1 == nil || *b.Address1 != "114 Main St E" {
		t.Errorf("Address1 = %v", b.Address1)
	}
	if b.Address2 != nil {
		t.Errorf("Address2 = %v, want nil", *b.Address2)
	}
	if b.Phone != nil {
		t.Errorf("Phone = %v, want nil", *b.Phone)
	}
	if !b.HasLocation() {
		t.Error("HasLocation() = false, want true")
	}
}

func TestBrewery_RoundTripCoordinates(t *testing.T) {
	in := Brewery{ID: "a", Name: "A", Type: TypeMicro, Latitude: floatPtr(1.25), Longitude: floatPtr(-2.5)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out Brewery
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Latitude == nil || *out.Latitude != 1.25 || out.Longitude == nil || *out.Longitude != -2.5 {
		t.Errorf("coordinates = %v/%v", out.Latitude, out.Longitude)
	}
}

func TestBrewery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		b       Brewery
		wantErr bool
	}{
		{name: "valid", b: Brewery{ID: "a", Name: "A", Type: TypeMicro}},
		{name: "missing id", b: Brewery{Name: "A", Type: TypeMicro}, wantErr: true},
		{name: "missing name", b: Brewery{ID: "a", Type: TypeMicro}, wantErr: true},
		{name: "missing type", b: Brewery{ID: "a", Name: "A"}, wantErr: true},
		{name: "blank id", b: Brewery{ID: "  ", Name: "A", Type: TypeMicro}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.b.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageFreshness_IsStale(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name        string
		lastUpdated int64
		want        bool
	}{
		{name: "never fetched", lastUpdated: 0, want: true},
		{name: "just fetched", lastUpdated: now.UnixMilli(), want: false},
		{name: "exactly at expiry", lastUpdated: now.Add(-ExpiryDuration).UnixMilli(), want: false},
		{name: "one millisecond past expiry", lastUpdated: now.Add(-ExpiryDuration).UnixMilli() - 1, want: true},
		{name: "ten minutes old", lastUpdated: now.Add(-10 * time.Minute).UnixMilli(), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := PageFreshness{Type: TypeMicro, Page: 1, LastUpdated: tt.lastUpdated}
			if got := f.IsStale(now); got != tt.want {
				t.Errorf("IsStale() = %v, want %v (age %v)", got, tt.want, f.Age(now))
			}
		})
	}
}

func TestPageFreshness_FetchedAt(t *testing.T) {
	if got := (PageFreshness{}).FetchedAt(); !got.IsZero() {
		t.Errorf("FetchedAt() = %v, want zero time", got)
	}

	at := time.UnixMilli(1_700_000_000_123)
	f := NewPageFreshness(TypeMicro, 3, at)
	if !f.FetchedAt().Equal(at) {
		t.Errorf("FetchedAt() = %v, want %v", f.FetchedAt(), at)
	}
	if f.Page != 3 || f.Type != TypeMicro {
		t.Errorf("key = (%s, %d)", f.Type, f.Page)
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	if len(types) != 10 {
		t.Fatalf("len(Types()) = %d, want 10", len(types))
	}
	if types[0] != TypeMicro {
		t.Errorf("Types()[0] = %q, want %q", types[0], TypeMicro)
	}

	types[0] = "mutated"
	if Types()[0] != TypeMicro {
		t.Error("Types() must return a copy")
	}

	if !IsKnownType(TypeBrewpub) {
		t.Error("IsKnownType(brewpub) = false")
	}
	if IsKnownType("winery") {
		t.Error("IsKnownType(winery) = true")
	}
}

func floatPtr(v float64) *float64 { return &v }
