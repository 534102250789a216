package sqlmapper

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oarkflow/json"
)

type Config struct {
	Name        string         `json:"name"`
	Key         string         `json:"key"`
	Host        string         `json:"host"`
	Port        int            `json:"port"`
	Driver      string         `json:"driver"`
	Username    string         `json:"username"`
	Password    string         `json:"password"`
	Database    string         `json:"database"`
	Params      map[string]any `json:"params"`
	MaxLifetime int64          `json:"max_lifetime"`
	MaxIdleTime int64          `json:"max_idle_time"`
	MaxOpenCons int            `json:"max_open_cons"`
	MaxIdleCons int            `json:"max_idle_cons"`
	PageSize    int            `json:"page_size"`
	Autocommit  *bool          `json:"autocommit"`
	Echo        *bool          `json:"echo"`
}

var keysToRemove = []string{
	"name", "key", "host", "port", "driver", "username", "password", "database", "params",
	"max_lifetime", "max_idle_time", "max_open_cons", "max_idle_cons", "page_size", "autocommit", "echo",
}

// DefaultConfig returns the settings used for keys a config document leaves out.
// Autocommit and Echo stay nil, which reads as on.
func DefaultConfig() Config {
	return Config{
		MaxLifetime: 60,
		MaxOpenCons: 20,
		PageSize:    10,
	}
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// DecodeConfig reads a JSON config document. Unknown top-level keys are
// collected into Params and end up in the DSN.
func DecodeConfig(data []byte) (cfg Config, err error) {
	cfg = DefaultConfig()
	err = json.Unmarshal(data, &cfg)
	if err != nil {
		return
	}
	var mapData map[string]any
	err = json.Unmarshal(data, &mapData)
	if err != nil {
		return
	}
	if cfg.Params == nil {
		cfg.Params = make(map[string]any)
	}
	for key, val := range mapData {
		if !slices.Contains(keysToRemove, key) {
			cfg.Params[key] = val
		}
	}
	return
}

// Options translates the pool-level settings of config into Pool options.
// A nil Autocommit or Echo leaves the setting on, so a hand-built Config
// never opens sessions whose writes Do would roll back.
func (config Config) Options() []Option {
	return []Option{
		WithPageSize(config.PageSize),
		WithAutocommit(enabled(config.Autocommit)),
		WithEcho(enabled(config.Echo)),
		WithPoolLimits(
			config.MaxOpenCons,
			config.MaxIdleCons,
			time.Duration(config.MaxLifetime)*time.Second,
			time.Duration(config.MaxIdleTime)*time.Second,
		),
	}
}

func (config Config) params(sep string) string {
	opts := make([]string, 0, len(config.Params))
	for k, v := range config.Params {
		opts = append(opts, k+"="+fmt.Sprint(v))
	}
	slices.Sort(opts)
	return strings.Join(opts, sep)
}

// ToString renders the driver-specific DSN.
func (config Config) ToString() string {
	switch config.Driver {
	case "mysql", "mariadb":
		if config.Host == "" {
			config.Host = "0.0.0.0"
		}
		if config.Port == 0 {
			config.Port = 3306
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", config.Username, config.Password, config.Host, config.Port, config.Database)
		if opts := config.params("&"); opts != "" {
			dsn = dsn + "?" + opts
		}
		return dsn
	case "postgres", "psql", "postgresql", "pgx":
		if config.Host == "" {
			config.Host = "0.0.0.0"
		}
		if config.Port == 0 {
			config.Port = 5432
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d", config.Host, config.Username, config.Password, config.Database, config.Port)
		if opts := config.params(" "); opts != "" {
			dsn = dsn + " " + opts
		}
		return dsn
	case "sql-server", "sqlserver", "mssql", "ms-sql":
		if config.Host == "" {
			config.Host = "0.0.0.0"
		}
		if config.Port == 0 {
			config.Port = 1433
		}
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", config.Username, config.Password, config.Host, config.Port, config.Database)
		if opts := config.params("&"); opts != "" {
			dsn = dsn + "&" + opts
		}
		return dsn
	case "sqlite", "sqlite3":
		dsn := config.Database
		if opts := config.params("&"); opts != "" {
			dsn = dsn + "?" + opts
		}
		return dsn
	}
	return ""
}
