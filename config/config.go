package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/jsphweid/midistates/constants"
	"github.com/jsphweid/midistates/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is read from defaults, then an optional YAML file, then the
// environment. Command line flags are applied last by the commands.
type Config struct {
	DataFolder     string `yaml:"data_folder"`      // folder name searched for from the start path
	OutputName     string `yaml:"output_name"`      // table file name next to the data folder
	LogLevel       string `yaml:"log_level"`        // debug, info, warn, error
	LogJSON        bool   `yaml:"log_json"`         // JSON log lines instead of logfmt
	Workers        int    `yaml:"workers"`          // recordings decoded in parallel
	ServeAddr      string `yaml:"serve_addr"`       // listen address of the serve command
	MaxUploadBytes int64  `yaml:"max_upload_bytes"` // largest accepted upload
}

func Default() *Config {
	return &Config{
		DataFolder:     constants.DataFolderName,
		OutputName:     constants.OutputName,
		LogLevel:       "info",
		Workers:        1,
		ServeAddr:      constants.DefaultServeAddr,
		MaxUploadBytes: constants.DefaultMaxUploadBytes,
	}
}

func Load(path string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MIDI_STATES_DATA_FOLDER"); v != "" {
		c.DataFolder = v
	}
	if v := os.Getenv("MIDI_STATES_OUTPUT_NAME"); v != "" {
		c.OutputName = v
	}
	if v := os.Getenv("MIDI_STATES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MIDI_STATES_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "MIDI_STATES_LOG_JSON")
		}
		c.LogJSON = b
	}
	if v := os.Getenv("MIDI_STATES_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "MIDI_STATES_WORKERS")
		}
		c.Workers = n
	}
	if v := os.Getenv("MIDI_STATES_SERVE_ADDR"); v != "" {
		c.ServeAddr = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DataFolder == "" {
		return errors.New("data_folder must not be empty")
	}
	if c.OutputName == "" {
		return errors.New("output_name must not be empty")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxUploadBytes < 1 {
		return errors.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if _, err := logging.New(logging.Config{Level: c.LogLevel}); err != nil {
		return err
	}
	return nil
}

func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, JSON: c.LogJSON}
}
