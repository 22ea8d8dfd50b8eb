package config

import "time"

// RateLimitConfig tunes the token-bucket limiter guarding the login and
// password-reset endpoints. Limiting is per client IP and only active
// when Redis is reachable.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads the limiter settings with defaults suited to
// interactive login traffic: a burst of 10, refilling one token per
// second.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        getenv("RATELIMIT_ENABLED", "true") == "true",
		Capacity:       atoi(getenv("RATELIMIT_CAPACITY", "10")),
		RefillTokens:   atoi(getenv("RATELIMIT_REFILL_TOKENS", "1")),
		RefillInterval: mustDur(getenv("RATELIMIT_REFILL_INTERVAL", "1s")),
		TTL:            mustDur(getenv("RATELIMIT_TTL", "10m")),
		Prefix:         getenv("RATELIMIT_PREFIX", "ratelimit"),
	}
}

func mustDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
