// Package config loads the application configuration from YAML files and environment
// variables and keeps it refreshable at runtime.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/StephenGriese/helloservice/discovery"
	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/tracing"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAppName = "hello-service"
	DefaultPort    = 8080
	DefaultEnv     = "default"
	DefaultPeerURL = "http://hello-service"
)

// AppConfig defines the configurable attributes of the service. Its structure matches the YAML
// files passed with --local-yaml.
type AppConfig struct {
	AppName    string           `yaml:"appName"`
	Port       int              `yaml:"port"`
	Tanzu      TanzuConfig      `yaml:"tanzu"`
	Server     ServerConfig     `yaml:"server"`
	Logger     logs.Config      `yaml:"loggerConfig"`
	Tracing    tracing.Config   `yaml:"tracing"`
	Discovery  discovery.Config `yaml:"discovery"`
	Downstream DownstreamConfig `yaml:"downstream"`
	Prime      PrimeConfig      `yaml:"prime"`
}

// TanzuConfig holds the platform settings. Env names the environment in the greeting.
type TanzuConfig struct {
	Env string `yaml:"env"`
}

type ServerConfig struct {
	Host              string        `yaml:"host"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
}

// DownstreamConfig describes the peer called by /invoke-hello.
type DownstreamConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// Resolve looks the URL host up in service discovery before calling it.
	Resolve bool `yaml:"resolve"`
}

type PrimeConfig struct {
	// Strict reports numbers below 2 as not prime.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration used when no file overrides a value.
func Default() AppConfig {
	return AppConfig{
		AppName: DefaultAppName,
		Port:    DefaultPort,
		Tanzu:   TanzuConfig{Env: DefaultEnv},
		Server: ServerConfig{
			ShutdownTimeout:   10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Logger: logs.Config{Level: "info", Format: logs.FormatLogfmt},
		Discovery: discovery.Config{
			Backend: discovery.BackendStatic,
		},
		Downstream: DownstreamConfig{
			Enabled: true,
			URL:     DefaultPeerURL,
			Timeout: 10 * time.Second,
		},
	}
}

// SplitFiles turns the comma separated --local-yaml value into file names.
func SplitFiles(list string) []string {
	var files []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Load reads files in order over the defaults, then applies environment overrides. It also
// returns the flattened dotted-key view of everything that was explicitly set.
func Load(files []string, getenv func(string) string) (AppConfig, map[string]string, error) {
	cfg := Default()
	flat := map[string]string{}

	for _, f := range files {
		if err := loadYamlFile(&cfg, flat, f); err != nil {
			return AppConfig{}, nil, errors.Wrapf(err, "error reading yaml from file %s", f)
		}
	}
	if err := applyEnv(&cfg, flat, getenv); err != nil {
		return AppConfig{}, nil, err
	}
	if err := cfg.validate(); err != nil {
		return AppConfig{}, nil, err
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.AppName
	}
	return cfg, flat, nil
}

func loadYamlFile(cfg *AppConfig, flat map[string]string, name string) error {
	fileBytes, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(fileBytes, cfg); err != nil {
		return err
	}

	var raw map[string]any
	if err = yaml.Unmarshal(fileBytes, &raw); err != nil {
		return err
	}
	flatten("", raw, flat)
	return nil
}

// applyEnv lets well-known environment variables override file values.
func applyEnv(cfg *AppConfig, flat map[string]string, getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv("TANZU_ENV"); v != "" {
		cfg.Tanzu.Env = v
		flat["tanzu.env"] = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PORT %q", v)
		}
		cfg.Port = port
		flat["port"] = v
	}
	if v := getenv("DOWNSTREAM_URL"); v != "" {
		cfg.Downstream.URL = v
		flat["downstream.url"] = v
	}
	return nil
}

func (c AppConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.Downstream.Enabled && c.Downstream.URL == "" {
		return errors.New("downstream.url is required when downstream is enabled")
	}
	return nil
}
