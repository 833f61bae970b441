package pulse

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultInterval          = time.Second * 6
	defaultConnectionTimeout = time.Second
	defaultRetryDelay        = time.Second
	defaultReconnectAttempts = 3

	minInterval = time.Millisecond
)

type (
	// Config carries the recognized session options.
	Config struct {
		Channel           string
		Interval          time.Duration
		ConnectionTimeout time.Duration
		RetryDelay        time.Duration
		ReconnectAttempts int
		OnFailure         func(cause error)
		Logger            zerolog.Logger
	}

	Option func(cfg *Config)
)

func defaultConfig() *Config {
	return &Config{
		Channel:           DefaultChannelName,
		Interval:          defaultInterval,
		ConnectionTimeout: defaultConnectionTimeout,
		RetryDelay:        defaultRetryDelay,
		ReconnectAttempts: defaultReconnectAttempts,
		Logger:            zerolog.Nop(),
	}
}

// WithChannel overrides the channel identifier the session binds to.
func WithChannel(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Channel = name
		}
	}
}

// WithInterval sets the heartbeat failure window. Requests are written at
// half this interval so a single lost round-trip does not trip the monitor.
func WithInterval(d time.Duration) Option {
	return func(cfg *Config) {
		if d >= minInterval {
			cfg.Interval = d
		}
	}
}

// WithConnectionTimeout bounds each channel-acquisition attempt.
func WithConnectionTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.ConnectionTimeout = d
		}
	}
}

// WithRetryDelay sets the fixed delay between acquisition attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(cfg *Config) {
		if d >= 0 {
			cfg.RetryDelay = d
		}
	}
}

// WithReconnectAttempts sets how many times a failed acquisition is retried
// before the session fails with ErrAcquisitionExhausted.
func WithReconnectAttempts(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.ReconnectAttempts = n
		}
	}
}

// WithFailureHandler routes any terminal cause to fn instead of surfacing it
// through Err. The event feed then ends without a propagated error.
func WithFailureHandler(fn func(cause error)) Option {
	return func(cfg *Config) {
		cfg.OnFailure = fn
	}
}

// WithLogger injects a logger. The default is zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithLogging toggles console logging on stderr.
func WithLogging(enabled bool) Option {
	return func(cfg *Config) {
		if enabled {
			cfg.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		} else {
			cfg.Logger = zerolog.Nop()
		}
	}
}
