package config

import (
	"os"
	"strconv"
)

// GetEnvAsInt reads key as an int. Unset or malformed values yield
// defaultValue.
func GetEnvAsInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
