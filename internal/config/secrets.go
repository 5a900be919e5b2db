package config

import "os"

// secrets never get a default in source control

var (
	AuthToken     = os.Getenv("AUTH_TOKEN")
	NoAuthBypass  = getenvBool("BYPASS_AUTH", false)
	RedisPassword = os.Getenv("REDIS_PASSWORD")
)

// ReloadSecrets picks up values that arrived through .env after package init.
func ReloadSecrets() {
	AuthToken = os.Getenv("AUTH_TOKEN")
	NoAuthBypass = getenvBool("BYPASS_AUTH", false)
	RedisPassword = os.Getenv("REDIS_PASSWORD")
}
