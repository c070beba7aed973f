// Package config loads the service configuration from a TOML file, an optional
// .env file and environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultPath is the configuration file read when no -config flag is given.
// A missing file at this path is not an error.
const DefaultPath = "config.toml"

// Store drivers.
const (
	DriverBadger    = "badger"
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
)

type Config struct {
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
	Store  Store  `toml:"store"`
	Events Events `toml:"events"`
}

type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Store struct {
	Driver    string    `toml:"driver"`
	Badger    Badger    `toml:"badger"`
	Mongo     Mongo     `toml:"mongo"`
	Firestore Firestore `toml:"firestore"`
}

type Badger struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

type Mongo struct {
	URI            string        `toml:"uri"`
	Database       string        `toml:"database"`
	Collection     string        `toml:"collection"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	ConnectRetries uint64        `toml:"connect_retries"`
}

type Firestore struct {
	ProjectID       string `toml:"project_id"`
	Collection      string `toml:"collection"`
	CredentialsFile string `toml:"credentials_file"`
	// EmulatorHost is only read from FIRESTORE_EMULATOR_HOST; the client library
	// picks it up from the environment on its own.
	EmulatorHost string `toml:"-"`
}

type Events struct {
	Enabled      bool  `toml:"enabled"`
	OutputBuffer int64 `toml:"output_buffer"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Store: Store{
			Driver: DriverBadger,
			Badger: Badger{Path: "data/badger"},
			Mongo: Mongo{
				Database:       "recipebox",
				Collection:     "blogposts",
				ConnectTimeout: 10 * time.Second,
				ConnectRetries: 5,
			},
			Firestore: Firestore{Collection: "blogposts"},
		},
		Events: Events{
			Enabled:      true,
			OutputBuffer: 64,
		},
	}
}

var loadDotEnvOnce sync.Once

// LoadDotEnv reads .env once if it exists. Variables already present in the
// environment win over the file.
func LoadDotEnv() {
	loadDotEnvOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg("dotenv: failed to load .env")
		}
	})
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !(errors.Is(err, os.ErrNotExist) && path == DefaultPath) {
			return nil, fmt.Errorf("decode configuration file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Server.Addr, "RECIPEBOX_ADDR")
	setString(&c.Log.Level, "RECIPEBOX_LOG_LEVEL")
	setString(&c.Store.Driver, "RECIPEBOX_STORE_DRIVER")
	setString(&c.Store.Badger.Path, "RECIPEBOX_BADGER_PATH")
	setString(&c.Store.Mongo.URI, "MONGODB_URI")
	setString(&c.Store.Firestore.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setString(&c.Store.Firestore.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Store.Firestore.EmulatorHost, "FIRESTORE_EMULATOR_HOST")
}

// Validate reports configuration that cannot start the service.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("config: server.max_body_bytes must be positive")
	}

	switch c.Store.Driver {
	case DriverBadger:
		if c.Store.Badger.Path == "" && !c.Store.Badger.InMemory {
			return errors.New("config: store.badger.path is required unless in_memory is set")
		}
	case DriverMongo:
		if c.Store.Mongo.URI == "" {
			return errors.New("config: store.mongo.uri (or MONGODB_URI) is required")
		}
		if c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			return errors.New("config: store.mongo.database and store.mongo.collection are required")
		}
	case DriverFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return errors.New("config: store.firestore.project_id (or GOOGLE_CLOUD_PROJECT) is required")
		}
		if c.Store.Firestore.Collection == "" {
			return errors.New("config: store.firestore.collection is required")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	return nil
}
