package config

import (
	"time"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Subgraph EndpointConfig `yaml:"subgraph"`
	RPC      EndpointConfig `yaml:"rpc"`
	Poll     PollConfig     `yaml:"poll"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" default:"3000" validate:"min=1,max=65535"`
}

// EndpointConfig points at one upstream.
type EndpointConfig struct {
	URL string `yaml:"url" validate:"required,url"`
}

// PollConfig controls the health check loop.
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" default:"60" validate:"min=1"`
	// 0 disables the per-request timeout
	TimeoutSeconds int `yaml:"timeout_seconds" default:"10" validate:"min=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"` // debug, info, warn, error
}

const (
	DefaultSubgraphURL = "https://flare-query.sceptre.fi/subgraphs/name/sflr-subgraph"
	DefaultRPCURL      = "https://flare.gateway.tenderly.co"
)

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c PollConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
