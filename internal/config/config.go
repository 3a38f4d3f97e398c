package config

import "os"

// Environment variables that replace the built-in file defaults.
const (
	EnvConfigFile = "JOBRUN_CONFIG_FILE"
	EnvStatsFile  = "JOBRUN_STATS_FILE"
)

// RunnerConfig holds every setting of a jobrun invocation.
type RunnerConfig struct {
	ConfigFile  string   // Jobs configuration (default "./jobs.json")
	StatsFile   string   // Stats file; .db/.sqlite/.sqlite3 selects SQLite (default "./stats.json")
	DryRun      bool     // Show commands without executing them
	ShowStats   bool     // Print the stats table instead of running jobs
	Clean       bool     // Remove job outputs instead of running jobs
	Jobs        []string // Restrict run/clean to these job names
	StatsFormat string   // Stats output: table, json, yaml
	NoColor     bool     // Disable coloured status lines
	LogLevel    string   // Log level: debug, info, warn, error
	LogFormat   string   // Log format: text, json
	Addr        string   // Listen address of `jobrun serve` (default ":8080")
}

// DefaultRunnerConfig returns sensible defaults, honouring the
// JOBRUN_CONFIG_FILE and JOBRUN_STATS_FILE environment variables.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ConfigFile:  envOr(EnvConfigFile, "./jobs.json"),
		StatsFile:   envOr(EnvStatsFile, "./stats.json"),
		StatsFormat: "table",
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":8080",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
