package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pharmassist/synthdata/internal/domain/simulation"
	"github.com/pharmassist/synthdata/internal/platform/blobstore"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Seed     int64  `mapstructure:"SEED"`
	Pharmacy string `mapstructure:"PHARMACY"`
	Year     int    `mapstructure:"YEAR"`
	OutDir   string `mapstructure:"OUT_DIR"`
	Mode     string `mapstructure:"MODE"`

	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     string `mapstructure:"PORT"`

	BlobDriver      string `mapstructure:"BLOB_DRIVER"`
	BlobPrefix      string `mapstructure:"BLOB_PREFIX"`
	BlobFSRoot      string `mapstructure:"BLOB_FS_ROOT"`
	BlobS3Bucket    string `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region    string `mapstructure:"BLOB_S3_REGION"`
	BlobS3Endpoint  string `mapstructure:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `mapstructure:"BLOB_S3_PATH_STYLE"`

	LoadDriver  string `mapstructure:"LOAD_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
}

// flagKeys maps command-line flags onto configuration keys. Only flags that
// the invoking command actually defines are bound.
var flagKeys = map[string]string{
	"seed":        "SEED",
	"pharmacy":    "PHARMACY",
	"year":        "YEAR",
	"out":         "OUT_DIR",
	"dir":         "OUT_DIR",
	"mode":        "MODE",
	"port":        "PORT",
	"log-level":   "LOG_LEVEL",
	"prefix":      "BLOB_PREFIX",
	"driver":      "LOAD_DRIVER",
	"dsn":         "DATABASE_URL",
	"blob":        "BLOB_DRIVER",
	"blob-root":   "BLOB_FS_ROOT",
	"s3-bucket":   "BLOB_S3_BUCKET",
	"s3-region":   "BLOB_S3_REGION",
	"s3-endpoint": "BLOB_S3_ENDPOINT",
}

func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("SEED", 0)
	v.SetDefault("PHARMACY", "paris15")
	v.SetDefault("YEAR", 2025)
	v.SetDefault("OUT_DIR", "./out")
	v.SetDefault("MODE", "full")
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8000")
	v.SetDefault("BLOB_DRIVER", "fs")
	v.SetDefault("BLOB_PREFIX", "datasets")
	v.SetDefault("BLOB_FS_ROOT", "./artifacts")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")
	v.SetDefault("LOAD_DRIVER", "sqlite")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"SEED", "PHARMACY", "YEAR", "OUT_DIR", "MODE", "ENV", "LOG_LEVEL", "PORT",
		"BLOB_DRIVER", "BLOB_PREFIX", "BLOB_FS_ROOT", "BLOB_S3_BUCKET", "BLOB_S3_REGION",
		"BLOB_S3_ENDPOINT", "BLOB_S3_PATH_STYLE", "LOAD_DRIVER", "DATABASE_URL",
		"DB_MAX_CONNS", "DB_MIN_CONNS", "AUTH_SIGNING_KEY",
	} {
		_ = v.BindEnv(key)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// RunMode parses MODE, accepting the "mini" alias.
func (c *Config) RunMode() (simulation.Mode, error) {
	return simulation.ParseMode(c.Mode)
}

// RunOptions returns the generator options described by the configuration.
func (c *Config) RunOptions() (simulation.Options, error) {
	mode, err := c.RunMode()
	if err != nil {
		return simulation.Options{}, err
	}
	return simulation.Options{Seed: c.Seed, Pharmacy: c.Pharmacy, Year: c.Year, Mode: mode}, nil
}

// Blob returns the blob store configuration.
func (c *Config) Blob() blobstore.Config {
	return blobstore.Config{
		Driver: blobstore.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blobstore.S3Config{
			Bucket:    c.BlobS3Bucket,
			Region:    c.BlobS3Region,
			Endpoint:  c.BlobS3Endpoint,
			PathStyle: c.BlobS3PathStyle,
		},
	}
}

// Validate rejects configurations that cannot produce a run. It is called
// before any output is written.
func (c *Config) Validate() error {
	opts, err := c.RunOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := simulation.Validate(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch blobstore.Driver(c.BlobDriver) {
	case blobstore.DriverFilesystem, blobstore.DriverMemory:
	case blobstore.DriverS3:
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("%w: BLOB_S3_BUCKET is required when BLOB_DRIVER is s3", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: BLOB_DRIVER must be fs, s3 or memory, got %q", ErrInvalidConfig, c.BlobDriver)
	}

	switch strings.ToLower(c.LoadDriver) {
	case "postgres", "sqlite", "mysql":
	default:
		return fmt.Errorf("%w: LOAD_DRIVER must be postgres, sqlite or mysql, got %q", ErrInvalidConfig, c.LoadDriver)
	}

	if c.DBMinConns < 0 || c.DBMaxConns < 1 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("%w: DB_MIN_CONNS=%d DB_MAX_CONNS=%d", ErrInvalidConfig, c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
