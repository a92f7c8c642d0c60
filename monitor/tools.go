package pulsemon

import (
	"log/slog"
	"os"
	"strconv"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarInt returns the integer value of an Environment Variable,
// or def when it is unset or not a number
func FillEnvVarInt(ev string, def int) int {
	value := os.Getenv(ev)
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Env var is not an integer, using default",
			slog.String("var", ev),
			slog.String("value", value),
			slog.Int("default", def))
		return def
	}
	return i
}

// FillEnvVarFloat is FillEnvVarInt for thresholds and rates
func FillEnvVarFloat(ev string, def float64) float64 {
	value := os.Getenv(ev)
	if value == "" {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Env var is not a number, using default",
			slog.String("var", ev),
			slog.String("value", value),
			slog.Float64("default", def))
		return def
	}
	return f
}
