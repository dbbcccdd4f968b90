package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"Go2LineCount/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	defaultNumShards      = 64
	defaultRunName        = "lc"
	defaultListenAddr     = ":8080"
	defaultGRPCListenAddr = ":9090"
)

// CounterConfig holds the settings of a single counting run.
type CounterConfig struct {
	SortBy   string `yaml:"sort_by"`
	MaxItems int    `yaml:"max_items"`
	Input    string `yaml:"input"`
	// NumShards is the number of hash shards of the frequency table.
	NumShards uint32 `yaml:"num_shards"`
	// NumWorkers bounds ranking parallelism; 0 means GOMAXPROCS.
	NumWorkers int    `yaml:"num_workers"`
	RunName    string `yaml:"run_name"`
}

// ClickHouseConfig holds the connection details for the ClickHouse writer.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the connection details for the NATS writer.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// GobConfig holds the output location of the gob writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// WriterDef defines a single report writer from the config file.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	Gob        GobConfig        `yaml:"gob"`
}

// APIConfig holds the listen addresses of the query server.
type APIConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	GRPCListenAddr string `yaml:"grpc_listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Counter CounterConfig `yaml:"counter"`
	Writers []WriterDef   `yaml:"writers"`
	API     APIConfig     `yaml:"api"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Counter: CounterConfig{
			SortBy:    model.SortByCount.String(),
			NumShards: defaultNumShards,
			RunName:   defaultRunName,
		},
		API: APIConfig{
			ListenAddr:     defaultListenAddr,
			GRPCListenAddr: defaultGRPCListenAddr,
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields absent from the file keep their defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return cfg, nil
}

// SortKey returns the parsed sort key of the counter section.
func (c *Config) SortKey() (model.SortKey, error) {
	key, err := model.ParseSortKey(c.Counter.SortBy)
	if err != nil {
		return 0, &model.ConfigError{Field: "sort_by", Err: err}
	}
	return key, nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := c.SortKey(); err != nil {
		return err
	}
	if c.Counter.MaxItems < 0 {
		return &model.ConfigError{Field: "max_items", Err: fmt.Errorf("must be a positive integer, got %d", c.Counter.MaxItems)}
	}
	if c.Counter.NumWorkers < 0 {
		return &model.ConfigError{Field: "num_workers", Err: fmt.Errorf("must not be negative, got %d", c.Counter.NumWorkers)}
	}
	for i, w := range c.Writers {
		if !w.Enabled {
			continue
		}
		if strings.TrimSpace(w.Type) == "" {
			return &model.ConfigError{Field: fmt.Sprintf("writers[%d].type", i), Err: errors.New("must not be empty")}
		}
	}
	return nil
}
