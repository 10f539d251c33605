package retry

import "time"

// DefaultPreset is the spec §4.1 default curve: 5 attempts, 1s -> 32s.
func DefaultPreset() Config {
	return Config{
		Name:         "default",
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     32 * time.Second,
		Factor:       2,
		Jitter:       true,
	}
}

// AggressivePreset is the spec §4.1 curve used by sub-agents: 8 attempts,
// 2s -> 60s. More attempts and a higher ceiling than Default, since a
// sub-agent giving up early wastes the whole task rather than one call.
func AggressivePreset() Config {
	return Config{
		Name:         "aggressive",
		MaxAttempts:  8,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Factor:       2,
		Jitter:       true,
	}
}

// GentlePreset is the spec §4.1 curve for low-stakes background calls: 3
// attempts, 0.5s -> 8s.
func GentlePreset() Config {
	return Config{
		Name:         "gentle",
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Factor:       2,
		Jitter:       true,
	}
}
