package sqlstore

import (
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
)

// breweryRow is the breweries table.
type breweryRow struct {
	ID            string `gorm:"primaryKey;size:64;index:idx_breweries_type_id,priority:2"`
	Name          string `gorm:"not null"`
	Type          string `gorm:"column:brewery_type;size:32;not null;index:idx_breweries_type_id,priority:1"`
	Address1      *string
	Address2      *string
	Address3      *string
	City          string
	StateProvince *string
	PostalCode    string
	Country       string
	Longitude     *float64
	Latitude      *float64
	Phone         *string
	WebsiteURL    *string
	State         string
	Street        *string
	UpdatedAt     time.Time
}

func (breweryRow) TableName() string { return "breweries" }

// freshnessRow is the page_freshness table.
type freshnessRow struct {
	Type        string `gorm:"column:brewery_type;primaryKey;size:32"`
	Page        int    `gorm:"column:page_number;primaryKey;autoIncrement:false"`
	LastUpdated int64  `gorm:"column:last_updated;not null"`
}

func (freshnessRow) TableName() string { return "page_freshness" }

func toRow(b brewery.Brewery) breweryRow {
	return breweryRow{
		ID:            b.ID,
		Name:          b.Name,
		Type:          b.Type,
		Address1:      b.Address1,
		Address2:      b.Address2,
		Address3:      b.Address3,
		City:          b.City,
		StateProvince: b.StateProvince,
		PostalCode:    b.PostalCode,
		Country:       b.Country,
		Longitude:     b.Longitude,
		Latitude:      b.Latitude,
		Phone:         b.Phone,
		WebsiteURL:    b.WebsiteURL,
		State:         b.State,
		Street:        b.Street,
	}
}

func (r breweryRow) toBrewery() brewery.Brewery {
	return brewery.Brewery{
		ID:            r.ID,
		Name:          r.Name,
		Type:          r.Type,
		Address1:      r.Address1,
		Address2:      r.Address2,
		Address3:      r.Address3,
		City:          r.City,
		StateProvince: r.StateProvince,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
		Longitude:     r.Longitude,
		Latitude:      r.Latitude,
		Phone:         r.Phone,
		WebsiteURL:    r.WebsiteURL,
		State:         r.State,
		Street:        r.Street,
	}
}
