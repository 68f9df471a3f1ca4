// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds daemon settings. DatabaseURL may be empty: the app then runs
// local-only against the mirror, the same degraded mode a network failure
// produces.
type Config struct {
	Port                string
	DatabaseURL         string
	MirrorPath          string
	JWTSecret           string
	OwnerID             string
	AllowSentinelRemote bool
}

// Load reads configuration from the environment, honoring a .env file if
// present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MirrorPath:          getEnv("MIRROR_PATH", "financeio.db"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		OwnerID:             getEnv("OWNER_ID", ""),
		AllowSentinelRemote: getBool("ALLOW_SENTINEL_REMOTE", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
