// Package config loads the process configuration for the pulse command.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Proto selects the transport: tcp, kcp or quic.
	Proto string `yaml:"proto" json:"proto"`
	// Address is dialed in initiator mode and bound in acceptor mode.
	Address   string `yaml:"address" json:"address"`
	SecretKey string `yaml:"secretKey" json:"secret_key"`
	Compress  bool   `yaml:"compress" json:"compress"`

	Channel           string        `yaml:"channel" json:"channel"`
	Interval          time.Duration `yaml:"interval" json:"interval"`
	ConnectionTimeout time.Duration `yaml:"connectionTimeout" json:"connection_timeout"`
	RetryDelay        time.Duration `yaml:"retryDelay" json:"retry_delay"`
	ReconnectAttempts int           `yaml:"reconnectAttempts" json:"reconnect_attempts"`
	Log               bool          `yaml:"log" json:"log"`
}

func New() *Config {
	return &Config{
		Proto:             "tcp",
		Address:           "127.0.0.1:4500",
		Interval:          time.Second * 6,
		ConnectionTimeout: time.Second,
		RetryDelay:        time.Second,
		ReconnectAttempts: 3,
	}
}

// Load reads a YAML file over the defaults. A missing path returns defaults.
func Load(path string) (cfg *Config, err error) {
	cfg = New()
	if path == "" {
		return
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return
}
