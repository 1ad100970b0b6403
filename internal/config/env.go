package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds the process-level configuration. BrowserLaunchOptions is
// kept as raw JSON and re-parsed on every ensure so a live process
// always sees the same value it started with.
type Env struct {
	BrowserLaunchOptions string `env:"BROWSER_LAUNCH_OPTIONS"`
	AllowDangerousArgs   bool   `env:"ALLOW_DANGEROUS_ARGS"`
	DockerContainer      bool   `env:"DOCKER_CONTAINER"`
	Transport            string `env:"MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr             string `env:"MCP_HTTP_ADDR" envDefault:"localhost:8931"`
}

// LoadEnv reads an optional .env file and then the process
// environment. A missing .env file is fine; CI and packaged installs
// run without one.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
