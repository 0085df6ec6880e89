package config

import "time"

const (
	// DefaultHttpPort matches the port the dashboard frontend expects.
	DefaultHttpPort = 5000

	DefaultHttpTimeout = 30 * time.Second

	DefaultMaxBodyBytes = 1 << 20

	DefaultModelPath  = "models/random_forest_tuned.json"
	DefaultScalerPath = "models/scaler.json"

	DefaultCacheSize = 1024

	// DefaultMetricsAddr is default address for metrics server.
	DefaultMetricsAddr = ":8000"
)

const (
	DashboardSourceBuiltin = "builtin"
	DashboardSourceFile    = "file"
	DashboardSourceSQLite  = "sqlite"
)
