// Package brewery defines the brewery record, the brewery types used to
// partition the directory into independently paged groups, and the per-page
// freshness record used by the cache policy.
package brewery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound indicates the requested record is not present in a store.
var ErrNotFound = errors.New("not found")

// Brewery is a single Open Brewery DB record.
// ID, Name and Type are required; everything else is optional display data.
type Brewery struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"brewery_type"`
	Address1      *string  `json:"address_1"`
	Address2      *string  `json:"address_2"`
	Address3      *string  `json:"address_3"`
	City          string   `json:"city"`
	StateProvince *string  `json:"state_province"`
	PostalCode    string   `json:"postal_code"`
	Country       string   `json:"country"`
	Longitude     *float64 `json:"longitude"`
	Latitude      *float64 `json:"latitude"`
	Phone         *string  `json:"phone"`
	WebsiteURL    *string  `json:"website_url"`
	State         string   `json:"state"`
	Street        *string  `json:"street"`
}

// Validate reports whether the record carries the fields needed to store and
// page it.
func (b Brewery) Validate() error {
	switch {
	case strings.TrimSpace(b.ID) == "":
		return errors.New("brewery: id is required")
	case strings.TrimSpace(b.Name) == "":
		return fmt.Errorf("brewery %s: name is required", b.ID)
	case strings.TrimSpace(b.Type) == "":
		return fmt.Errorf("brewery %s: brewery_type is required", b.ID)
	}
	return nil
}

// HasLocation reports whether both coordinates are known.
func (b Brewery) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// UnmarshalJSON accepts coordinates encoded either as JSON numbers or as
// strings ("-98.00272896"), which is how older API versions return them.
func (b *Brewery) UnmarshalJSON(data []byte) error {
	type plain Brewery
	var raw struct {
		plain
		Longitude json.RawMessage `json:"longitude"`
		Latitude  json.RawMessage `json:"latitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lon, err := parseCoordinate(raw.Longitude)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	lat, err := parseCoordinate(raw.Latitude)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}

	*b = Brewery(raw.plain)
	b.Longitude = lon
	b.Latitude = lat
	return nil
}

func parseCoordinate(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("parse coordinate %q: %w", text, err)
	}
	return &v, nil
}
