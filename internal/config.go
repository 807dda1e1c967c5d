package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "MICRODB"

type MicroDBConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"storage"`

	Buffer struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"buffer"`

	Catalog struct {
		CacheSize int `mapstructure:"cache_size"`
	} `mapstructure:"catalog"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// NewViper returns a viper instance with every key defaulted and
// MICRODB_* environment overrides enabled (storage.dir -> MICRODB_STORAGE_DIR).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_name", "microdb")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("buffer.capacity", 64)
	v.SetDefault("catalog.cache_size", 128)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads an optional YAML file on top of the defaults.
func LoadConfig(path string) (*MicroDBConfig, error) {
	return Load(NewViper(), path)
}

// Load is LoadConfig on a caller-prepared viper, e.g. one with flags bound.
// An empty path skips the file.
func Load(v *viper.Viper, path string) (*MicroDBConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg MicroDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Storage.Dir == "" {
		return nil, fmt.Errorf("config: storage.dir is empty")
	}
	if _, err := cfg.LogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *MicroDBConfig) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}
