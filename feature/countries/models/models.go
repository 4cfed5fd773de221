package models

import "time"

// Country is the persisted per-country record. The surrogate id stays stable
// across refreshes; name is unique regardless of input casing because the
// pipeline resolves identity case-insensitively before every upsert.
type Country struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Capital         *string   `gorm:"column:capital;size:255" json:"capital"`
	Region          *string   `gorm:"column:region;size:255;index" json:"region"`
	Population      int64     `gorm:"column:population;not null" json:"population"`
	CurrencyCode    *string   `gorm:"column:currency_code;size:6;index" json:"currency_code"`
	ExchangeRate    *float64  `gorm:"column:exchange_rate" json:"exchange_rate"`
	EstimatedGDP    *float64  `gorm:"column:estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string   `gorm:"column:flag_url;size:512" json:"flag_url"`
	LastRefreshedAt time.Time `gorm:"column:last_refreshed_at" json:"last_refreshed_at"`
}

// TableName overrides the table name.
func (Country) TableName() string {
	return "countries"
}

// Currency is a single entry of a country feed record's currency list.
type Currency struct {
	Code string `json:"code"`
}

// CountryEntry is a raw record from the country directory feed.
type CountryEntry struct {
	Name       string     `json:"name"`
	Capital    string     `json:"capital"`
	Region     string     `json:"region"`
	Population int64      `json:"population"`
	Flag       string     `json:"flag"`
	Currencies []Currency `json:"currencies"`
}

// GDPEntry is one row of the top-GDP projection.
type GDPEntry struct {
	Name         string  `json:"name"`
	EstimatedGDP float64 `json:"estimated_gdp"`
}

// Summary is the read-only projection served by the summary endpoint and
// exported as the snapshot object after each refresh.
type Summary struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
	TopCountries    []GDPEntry `json:"top_countries"`
}
