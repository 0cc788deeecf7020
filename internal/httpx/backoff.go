package httpx

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig controls the retry delay curve.
type BackoffConfig struct {
	InitialMs int
	MaxMs     int
	JitterMs  int
}

// DefaultBackoffConfig returns the default backoff curve: 1s base doubling
// per attempt, up to 1s of random jitter, capped at 30s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialMs: 1000,
		MaxMs:     30000,
		JitterMs:  1000,
	}
}

// Backoff computes the delay before retry attempt n (0-based).
func Backoff(attempt int, cfg BackoffConfig) time.Duration {
	delay := float64(cfg.InitialMs) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(cfg.MaxMs))
	if cfg.JitterMs > 0 {
		delay += rand.Float64() * float64(cfg.JitterMs)
	}
	delay = math.Min(delay, float64(cfg.MaxMs))
	return time.Duration(delay) * time.Millisecond
}
