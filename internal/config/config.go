/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config is the Manager's typed, viper-bound configuration (spec
// SPEC_FULL §6): a single Config struct decoded from file/env/flags via
// spf13/viper + mitchellh/mapstructure, validated with
// go-playground/validator/v10, with fsnotify-driven reload of the
// non-auth-mode fields while the Manager runs.
package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AuthMode selects how Peers are authenticated during handshake step 4
// (spec §4.2).
type AuthMode string

const (
	AuthNone        AuthMode = "none"
	AuthCertificate AuthMode = "certificate"
	AuthHostname    AuthMode = "hostname"
	AuthLogin       AuthMode = "login"
)

// Config is the Manager's full resolved configuration.
type Config struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`

	TLSEnabled  bool   `mapstructure:"tls_enabled"`
	TLSCertFile string `mapstructure:"tls_cert_file" validate:"required_if=TLSEnabled true"`
	TLSKeyFile  string `mapstructure:"tls_key_file" validate:"required_if=TLSEnabled true"`

	AuthMode AuthMode `mapstructure:"auth_mode" validate:"required,oneof=none certificate hostname login"`

	CredentialDSN string `mapstructure:"credential_dsn" validate:"required_unless=AuthMode none"`

	MaxFrameBytes int `mapstructure:"max_frame_bytes" validate:"omitempty,min=1"`

	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=panic fatal error warn info debug"`
	LogFile  string `mapstructure:"log_file"`

	JSONBackend string `mapstructure:"json_backend"`

	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
}

// Default returns the zero-friendly configuration the teacher's config
// packages always provide as a starting point before env/flag overrides.
func Default() Config {
	return Config{
		Host:          "0.0.0.0",
		Port:          1875,
		AuthMode:      AuthNone,
		MaxFrameBytes: 64 * 1024 * 1024,
		LogLevel:      "info",
		JSONBackend:   "BUILTIN",
	}
}

var validate = validator.New()

// Validate runs struct-tag validation (spec SPEC_FULL §6: "validate the
// start command's resolved configuration (host/port/cert paths/auth mode
// mutual exclusion)").
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Loader binds a Config to a viper instance, watching the backing file
// for changes (fsnotify, wired through viper.WatchConfig) so operators can
// edit log level/metrics toggles without a restart.
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex
	on func(Config)
}

// NewLoader builds a Loader seeded with Default() and the MSL_NETWORK_
// environment variable prefix.
func NewLoader() *Loader {
	v := viper.New()
	for key, val := range structToMap(Default()) {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix("MSL_NETWORK")
	v.AutomaticEnv()
	return &Loader{v: v}
}

// SetConfigFile points the loader at an explicit path (as opposed to
// viper's name/paths search).
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads the bound file (if any) and decodes+validates a Config.
func (l *Loader) Load() (Config, error) {
	if l.v.ConfigFileUsed() != "" {
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WatchForChanges invokes onChange with the freshly decoded Config every
// time the bound file changes on disk. Decode/validation errors are
// swallowed (the prior valid Config keeps running) since a reload must
// never crash a live Manager over a typo in the file.
func (l *Loader) WatchForChanges(onChange func(Config)) {
	l.mu.Lock()
	l.on = onChange
	l.mu.Unlock()

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			return
		}
		l.mu.Lock()
		fn := l.on
		l.mu.Unlock()
		if fn != nil {
			fn(cfg)
		}
	})
	l.v.WatchConfig()
}

func structToMap(c Config) map[string]interface{} {
	return map[string]interface{}{
		"host":            c.Host,
		"port":            c.Port,
		"tls_enabled":     c.TLSEnabled,
		"auth_mode":       string(c.AuthMode),
		"max_frame_bytes": c.MaxFrameBytes,
		"log_level":       c.LogLevel,
		"json_backend":    c.JSONBackend,
		"metrics_enabled": c.MetricsEnabled,
	}
}
