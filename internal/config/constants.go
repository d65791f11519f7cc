package config

import "time"

// Application constants.
const (
	AppName    = "stockwatch"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces all environment variables (STOCKWATCH_*).
	EnvPrefix = "STOCKWATCH"

	// DefaultConfigFile is the optional YAML config looked up next to the
	// working directory when STOCKWATCH_CONFIG_FILE is unset.
	DefaultConfigFile = "stockwatch.yaml"

	// Taiwan market session. The close carries a few minutes of buffer so
	// the final prints are still observed.
	MarketOpenHour    = 9
	MarketOpenMinute  = 0
	MarketCloseHour   = 13
	MarketCloseMinute = 35
	MarketTimezone    = "Asia/Taipei"

	// Data directories, relative to the working directory.
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Provider limits.
	VisionMonthlyFreeQuota = 1000
	PricingHistoryDays     = 65 // enough trading days to compute MA20

	DefaultHTTPTimeout = 30 * time.Second
)
