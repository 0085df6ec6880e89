package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http      HttpConfig      `yaml:"http"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type HttpConfig struct {
	// Port is the listen port of the API server.
	Port int `yaml:"port" validate:"gt=0,lte=65535"`

	// Timeout bounds request handling and server read/write.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	AllowedOrigins []string `yaml:"allowed_origins" validate:"min=1"`

	// MaxBodyBytes limits the size of a prediction request body.
	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"gt=0"`
}

type ArtifactsConfig struct {
	ModelPath  string `yaml:"model_path" validate:"required"`
	ScalerPath string `yaml:"scaler_path" validate:"required"`

	// Watch logs a warning when a loaded artifact changes on disk.
	Watch bool `yaml:"watch"`
}

type DashboardConfig struct {
	// Source is one of builtin, file or sqlite.
	Source string `yaml:"source" validate:"oneof=builtin file sqlite"`
	Path   string `yaml:"path" validate:"required_unless=Source builtin"`
}

type CacheConfig struct {
	// Size of the prediction result cache, 0 disables it.
	Size int `yaml:"size" validate:"gte=0"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Console    bool   `yaml:"console"`
	Dir        string `yaml:"dir"`
	MaxSize    int    `yaml:"max_size" validate:"gte=0"`
	MaxAge     int    `yaml:"max_age" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	// Compress gzips rotated log files.
	Compress bool `yaml:"compress"`
}

type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr" validate:"required_if=Enable true"`
}

// New default configuration.
func New() *Config {
	return &Config{
		Http: HttpConfig{
			Port:           DefaultHttpPort,
			Timeout:        DefaultHttpTimeout,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   DefaultMaxBodyBytes,
		},
		Artifacts: ArtifactsConfig{
			ModelPath:  DefaultModelPath,
			ScalerPath: DefaultScalerPath,
		},
		Dashboard: DashboardConfig{
			Source: DashboardSourceBuiltin,
		},
		Cache: CacheConfig{
			Size: DefaultCacheSize,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Metrics: MetricsConfig{
			Enable: false,
			Addr:   DefaultMetricsAddr,
		},
	}
}

// Load reads a yaml file on top of the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg, cfg.Validate()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate config parameters.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
