package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config carries everything the server and the import pipeline need. The
// pipeline always receives its roots through here at construction time; no
// component reads the process environment at call time.
type Config struct {
	BooksDir       string `koanf:"books_dir"`
	CoversDir      string `koanf:"covers_dir"`
	InboxDir       string `koanf:"inbox_dir"`
	InboxLibraryID string `koanf:"inbox_library_id"`

	CoverWidth   int `koanf:"cover_width"`
	CoverHeight  int `koanf:"cover_height"`
	CoverQuality int `koanf:"cover_quality"`

	DatabaseDebug    bool   `koanf:"database_debug"`
	DatabaseFilePath string `koanf:"database_file_path"`

	ServerHost string `koanf:"server_host"`
	ServerPort int    `koanf:"server_port"`

	// Not user-configurable; tests shorten the watcher intervals.
	DatabaseBusyTimeout       time.Duration `koanf:"-"`
	DatabaseConnectRetryCount int           `koanf:"-"`
	DatabaseConnectRetryDelay time.Duration `koanf:"-"`
	DatabaseMaxRetries        int           `koanf:"-"`
	WatchPollInterval         time.Duration `koanf:"-"`
	WatchStabilityWindow      time.Duration `koanf:"-"`

	Hostname string `koanf:"-"`
}

const (
	configFileENV = "CONFIG_FILE"
	envPrefix     = "LIBRARY_"
)

// New loads the configuration: built-in defaults, then an optional YAML file
// (CONFIG_FILE, ./config.yaml by default), then LIBRARY_-prefixed environment
// variables.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		BooksDir:         "/data/books",
		CoversDir:        "/data/covers",
		CoverWidth:       300,
		CoverHeight:      450,
		CoverQuality:     85,
		DatabaseFilePath: "/data/library.sqlite",
		ServerHost:       "0.0.0.0",
		ServerPort:       3690,

		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		WatchPollInterval:         500 * time.Millisecond,
		WatchStabilityWindow:      2 * time.Second,

		Hostname: hostname,
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = "./config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	return cfg, nil
}
