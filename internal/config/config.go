package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	HTTPPort int
	DataDir  string

	// FaultProfile points at an optional YAML file overriding the default
	// latency/failure rates; FaultSeed makes a run replayable.
	FaultProfile string
	FaultSeed    int64
	NoFaults     bool
}

func Load() *Config {
	return &Config{
		HTTPPort:     getEnvInt("HTTP_PORT", 8000),
		DataDir:      getEnv("DATA_DIR", "./data"),
		FaultProfile: getEnv("FAULT_PROFILE", ""),
		FaultSeed:    int64(getEnvInt("FAULT_SEED", 0)),
		NoFaults:     getEnvBool("NO_FAULTS", false),
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}
