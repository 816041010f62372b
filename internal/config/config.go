package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Evaluation    EvaluationConfig    `mapstructure:"evaluation"`
	Decomposition DecompositionConfig `mapstructure:"decomposition"`
	Calendar      CalendarConfig      `mapstructure:"calendar"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EvaluationConfig controls the periodic model-evaluation sweep: how wide the
// accuracy windows are, when the sweep runs, and how results are cached.
type EvaluationConfig struct {
	RecentWindow        string `mapstructure:"recent_window"`
	BaselineWindow      string `mapstructure:"baseline_window"`
	SweepSchedule       string `mapstructure:"sweep_schedule"`
	ReportTTL           string `mapstructure:"report_ttl"`
	MaxConcurrentModels int    `mapstructure:"max_concurrent_models"`
	MinHistoryPoints    int    `mapstructure:"min_history_points"`
}

type DecompositionConfig struct {
	DefaultPeriod      int    `mapstructure:"default_period"`
	MaxFrequencies     int    `mapstructure:"max_frequencies"`
	WaveletLevels      int    `mapstructure:"wavelet_levels"`
	SeasonalSpan       int    `mapstructure:"seasonal_span"`
	Robust             bool   `mapstructure:"robust"`
	AROrder            int    `mapstructure:"ar_order"`
	ResultTTL          string `mapstructure:"result_ttl"`
	RefreshSchedule    string `mapstructure:"refresh_schedule"`
	Lookback           string `mapstructure:"lookback"`
	AverageTradingDays int    `mapstructure:"average_trading_days"`
	AdjustTradingDays  bool   `mapstructure:"adjust_trading_days"`
	AdjustHolidays     bool   `mapstructure:"adjust_holidays"`
}

// CalendarConfig lists dates whose observations are scaled before seasonal
// adjustment. Factors are multiplicative; 1.0 means no effect.
type CalendarConfig struct {
	HolidayFactors map[string]float64 `mapstructure:"holiday_factors"`
}

// RetentionConfig controls how long evaluation data is kept before cleanup.
type RetentionConfig struct {
	PredictionRetention  string `mapstructure:"prediction_retention"`
	ObservationRetention string `mapstructure:"observation_retention"`
	CleanupInterval      string `mapstructure:"cleanup_interval"`
}

type MonitorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	for name, value := range map[string]string{
		"evaluation.recent_window":        c.Evaluation.RecentWindow,
		"evaluation.baseline_window":      c.Evaluation.BaselineWindow,
		"evaluation.report_ttl":           c.Evaluation.ReportTTL,
		"decomposition.result_ttl":        c.Decomposition.ResultTTL,
		"decomposition.lookback":          c.Decomposition.Lookback,
		"retention.prediction_retention":  c.Retention.PredictionRetention,
		"retention.observation_retention": c.Retention.ObservationRetention,
		"retention.cleanup_interval":      c.Retention.CleanupInterval,
		"monitor.interval":                c.Monitor.Interval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	if c.Evaluation.SweepSchedule == "" {
		return fmt.Errorf("evaluation.sweep_schedule must not be empty")
	}
	if c.Decomposition.RefreshSchedule == "" {
		return fmt.Errorf("decomposition.refresh_schedule must not be empty")
	}
	if c.Evaluation.MaxConcurrentModels < 1 {
		return fmt.Errorf("evaluation.max_concurrent_models must be at least 1, got %d", c.Evaluation.MaxConcurrentModels)
	}
	if c.Decomposition.DefaultPeriod < 2 {
		return fmt.Errorf("decomposition.default_period must be at least 2, got %d", c.Decomposition.DefaultPeriod)
	}
	for date := range c.Calendar.HolidayFactors {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid calendar.holiday_factors date %q: %w", date, err)
		}
	}
	return nil
}

// Duration helpers return the parsed values; validate has already rejected
// unparseable strings during Load.

func (e EvaluationConfig) RecentWindowDuration() time.Duration {
	d, _ := time.ParseDuration(e.RecentWindow)
	return d
}

func (e EvaluationConfig) BaselineWindowDuration() time.Duration {
	d, _ := time.ParseDuration(e.BaselineWindow)
	return d
}

func (e EvaluationConfig) ReportTTLDuration() time.Duration {
	d, _ := time.ParseDuration(e.ReportTTL)
	return d
}

func (d DecompositionConfig) ResultTTLDuration() time.Duration {
	ttl, _ := time.ParseDuration(d.ResultTTL)
	return ttl
}

func (d DecompositionConfig) LookbackDuration() time.Duration {
	lookback, _ := time.ParseDuration(d.Lookback)
	return lookback
}

func (r RetentionConfig) PredictionRetentionDuration() time.Duration {
	d, _ := time.ParseDuration(r.PredictionRetention)
	return d
}

func (r RetentionConfig) ObservationRetentionDuration() time.Duration {
	d, _ := time.ParseDuration(r.ObservationRetention)
	return d
}

func (r RetentionConfig) CleanupIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(r.CleanupInterval)
	return d
}

func (m MonitorConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(m.Interval)
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "forecastsight")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Evaluation sweep
	viper.SetDefault("evaluation.recent_window", "168h")
	viper.SetDefault("evaluation.baseline_window", "720h")
	viper.SetDefault("evaluation.sweep_schedule", "0 0 * * * *")
	viper.SetDefault("evaluation.report_ttl", "1h")
	viper.SetDefault("evaluation.max_concurrent_models", 4)
	viper.SetDefault("evaluation.min_history_points", 5)

	// Decomposition
	viper.SetDefault("decomposition.default_period", 12)
	viper.SetDefault("decomposition.max_frequencies", 10)
	viper.SetDefault("decomposition.wavelet_levels", 4)
	viper.SetDefault("decomposition.seasonal_span", 7)
	viper.SetDefault("decomposition.robust", true)
	viper.SetDefault("decomposition.ar_order", 2)
	viper.SetDefault("decomposition.result_ttl", "30m")
	viper.SetDefault("decomposition.refresh_schedule", "0 30 * * * *")
	viper.SetDefault("decomposition.lookback", "720h")
	viper.SetDefault("decomposition.average_trading_days", 21)
	viper.SetDefault("decomposition.adjust_trading_days", false)
	viper.SetDefault("decomposition.adjust_holidays", false)

	// Calendar
	viper.SetDefault("calendar.holiday_factors", map[string]float64{})

	// Retention
	viper.SetDefault("retention.prediction_retention", "2160h")
	viper.SetDefault("retention.observation_retention", "8760h")
	viper.SetDefault("retention.cleanup_interval", "1h")

	// Runtime monitor
	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "30s")
}
