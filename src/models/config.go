package models

// MConfig Structure
type MConfig struct {
	Name     string           `yaml:"name"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	LogLevel string           `yaml:"log_level"`
	Preset   string           `yaml:"preset"` // base parameter set the model section overrides
	Model    MModelParameters `yaml:"model"`
	Data     MDataConfig      `yaml:"data"`
	Yahoo    MYahooConfig     `yaml:"yahoo"`
	Network  MNetworkConfig   `yaml:"network"`
	Storage  MStorageConfig   `yaml:"storage"`
	Sweep    MSweepConfig     `yaml:"sweep"`
	Observed MObservedConfig  `yaml:"observed"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	Schema             string `yaml:"schema"`         // postgres only
	RetentionDays      int    `yaml:"retention_days"` // 0 keeps every run
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

// MDataConfig describes where the auxiliary asset prices come from.
type MDataConfig struct {
	Source          string         `yaml:"source"` // "csv" or "yahoo"
	Column          string         `yaml:"column"`
	Assets          []MAssetSource `yaml:"assets"`
	Range           MDateRange     `yaml:"range"`
	Calendar        string         `yaml:"calendar"` // MIC, e.g. "xnys"
	TradingDaysOnly bool           `yaml:"trading_days_only"`
	FallbackCSV     bool           `yaml:"fallback_csv"` // yahoo only: fall back to the asset paths
}

// MAssetSource maps one asset column to its file (csv) or ticker (yahoo).
type MAssetSource struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Symbol string `yaml:"symbol"`
	Invert bool   `yaml:"invert"` // store 1/price, used for bond yields
}

type MYahooConfig struct {
	BaseURL  string `yaml:"base_url"`
	Interval string `yaml:"interval"`
	Range    string `yaml:"range"`
}

// MSweepConfig is a parameter grid; empty axes fall back to the base model value.
type MSweepConfig struct {
	KSP         []float64 `yaml:"k_sp" json:"k_sp"`
	KSD         []float64 `yaml:"k_sd" json:"k_sd"`
	NoiseLevels []float64 `yaml:"noise_levels" json:"noise_levels"`
	Seeds       []int64   `yaml:"seeds" json:"seeds"`
	Concurrency int       `yaml:"concurrency" json:"concurrency"`
}

// MObservedConfig points at the observed price series the simulation is compared against.
type MObservedConfig struct {
	Path   string `yaml:"path"`
	Column string `yaml:"column"`
}
