package countries

// Config holds configuration for the country data feature.
type Config struct {
	// CountriesURL is the country directory feed endpoint.
	CountriesURL string `mapstructure:"countries_url" default:"https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"`
	// RatesURL is the exchange-rate feed endpoint (rates relative to USD).
	RatesURL string `mapstructure:"rates_url" default:"https://open.er-api.com/v6/latest/USD"`
	// FetchTimeoutSeconds bounds each outbound feed request.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" default:"15"`
	// GDPMultiplierMin is the lower bound of the GDP estimation multiplier.
	GDPMultiplierMin int `mapstructure:"gdp_multiplier_min" default:"1000"`
	// GDPMultiplierMax is the upper bound of the GDP estimation multiplier.
	GDPMultiplierMax int `mapstructure:"gdp_multiplier_max" default:"2000"`
	// PruneMissing deletes cached countries absent from the latest feed.
	PruneMissing bool `mapstructure:"prune_missing" default:"false"`
	// ExclusiveRefresh rejects refresh runs that overlap an in-flight one.
	ExclusiveRefresh bool `mapstructure:"exclusive_refresh" default:"false"`
	// SnapshotObject is the object name for the exported summary snapshot.
	SnapshotObject string `mapstructure:"snapshot_object" default:"cache/summary.json"`
	// SummaryCacheTTLSeconds caches the summary projection; 0 disables caching.
	SummaryCacheTTLSeconds int `mapstructure:"summary_cache_ttl_seconds" default:"0"`
}
