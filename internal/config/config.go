// Package config surfaces Viper-backed settings with environment
// fallbacks. Keys use dotted lowercase in config files and SCREAMING_SNAKE
// in the environment (api.url / COSTMAP_API_URL).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables.
const EnvPrefix = "COSTMAP"

// Configuration keys.
const (
	KeyAPIURL         = "api.url"
	KeySSEURL         = "sse.url"
	KeyToken          = "auth.token"
	KeyCacheTTL       = "cache.ttl"
	KeyDraftDB        = "drafts.db"
	KeyDraftHorizon   = "drafts.horizon"
	KeyReconnectDelay = "push.reconnect_delay"
	KeyMaxAttempts    = "push.max_attempts"
)

// Defaults for a local development backend.
const (
	DefaultAPIURL = "http://localhost:8000/api"
	DefaultSSEURL = "http://localhost:8000/api/events/"
)

// Init binds the environment to Viper and sets defaults. Call once before
// reading any key.
func Init() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyAPIURL, DefaultAPIURL)
	viper.SetDefault(KeySSEURL, DefaultSSEURL)
	viper.SetDefault(KeyCacheTTL, 5*time.Minute)
	viper.SetDefault(KeyDraftHorizon, 24*time.Hour)
	viper.SetDefault(KeyReconnectDelay, 3*time.Second)
	viper.SetDefault(KeyMaxAttempts, 5)
}

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first, for callers that pass raw env names
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// APIURL returns the REST base URL without a trailing slash.
func APIURL() string {
	return strings.TrimRight(viper.GetString(KeyAPIURL), "/")
}

// SSEURL returns the push endpoint URL.
func SSEURL() string {
	return viper.GetString(KeySSEURL)
}

// Token returns the configured auth token, if any. The usual source is
// COSTMAP_AUTH_TOKEN.
func Token() string {
	return viper.GetString(KeyToken)
}

// CacheTTL returns the partition cache lifetime.
func CacheTTL() time.Duration {
	return viper.GetDuration(KeyCacheTTL)
}

// DraftDB returns the path of the draft database, or empty for in-memory
// drafts.
func DraftDB() string {
	return viper.GetString(KeyDraftDB)
}

// DraftHorizon returns how long a draft stays restorable.
func DraftHorizon() time.Duration {
	return viper.GetDuration(KeyDraftHorizon)
}

// ReconnectDelay returns the pause between push reconnect attempts.
func ReconnectDelay() time.Duration {
	return viper.GetDuration(KeyReconnectDelay)
}

// MaxAttempts returns the push reconnect attempt cap.
func MaxAttempts() int {
	return viper.GetInt(KeyMaxAttempts)
}
