// Package config loads, validates, and describes the host configuration: which
// capabilities a guest may use and the backends that serve them.
//
// A configuration file is YAML (.yaml, .yml), TOML (.toml), or JSON (.json):
//
//	capabilities:
//	  cache:
//	    enabled: true
//	    backend: memory
//	    max_entry_size: 65536
//	  db:
//	    enabled: true
//	    dsn: users.db
//	    init:
//	      - CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY, name TEXT, email TEXT)
//	    queries:
//	      - name: addUser
//	        type: insert
//	        query: INSERT INTO users (name, email) VALUES (:name, :email)
//	        var_count: 2
//	  graphql:
//	    enabled: true
//	    timeout: 10s
//	    allowed_hosts: [api.example.com]
//	  file:
//	    enabled: true
//	    dir: ./static
//	log:
//	  level: info
package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// Config is the root of the host configuration.
type Config struct {
	Capabilities Capabilities `yaml:"capabilities" toml:"capabilities" json:"capabilities"`
	Log          LogConfig    `yaml:"log" toml:"log" json:"log"`
	// MaxRequestSize bounds any region read from guest memory, in bytes.
	MaxRequestSize uint32 `yaml:"max_request_size" toml:"max_request_size" json:"max_request_size" validate:"omitempty,min=64"`
	// MemoryLimitPages caps guest linear memory in 64KiB pages. Zero means
	// the runtime default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" toml:"memory_limit_pages" json:"memory_limit_pages" validate:"lte=65536"`
}

// Capabilities groups the operation families a guest may use.
type Capabilities struct {
	Cache   CacheConfig   `yaml:"cache" toml:"cache" json:"cache"`
	DB      DBConfig      `yaml:"db" toml:"db" json:"db"`
	GraphQL GraphQLConfig `yaml:"graphql" toml:"graphql" json:"graphql"`
	File    FileConfig    `yaml:"file" toml:"file" json:"file"`
}

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// CacheConfig configures cache_set and cache_get.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Backend string `yaml:"backend" toml:"backend" json:"backend" validate:"omitempty,oneof=memory redis" jsonschema:"enum=memory,enum=redis"`
	// MaxEntrySize rejects larger cache_set values. Zero means no limit.
	MaxEntrySize int          `yaml:"max_entry_size" toml:"max_entry_size" json:"max_entry_size" validate:"gte=0"`
	Memory       MemoryConfig `yaml:"memory" toml:"memory" json:"memory"`
	Redis        RedisConfig  `yaml:"redis" toml:"redis" json:"redis"`
}

// MemoryConfig tunes the in-process cache.
type MemoryConfig struct {
	Shards     int      `yaml:"shards" toml:"shards" json:"shards" validate:"omitempty,gt=0"`
	LifeWindow Duration `yaml:"life_window" toml:"life_window" json:"life_window"`
	MaxSizeMB  int      `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
}

// RedisConfig points the cache at a Redis server.
type RedisConfig struct {
	Addr      string `yaml:"addr" toml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Password  string `yaml:"password" toml:"password" json:"password"`
	DB        int    `yaml:"db" toml:"db" json:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix" json:"key_prefix"`
}

// DBConfig configures db_exec.
type DBConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Driver  string `yaml:"driver" toml:"driver" json:"driver"`
	DSN     string `yaml:"dsn" toml:"dsn" json:"dsn" validate:"required_if=Enabled true"`
	// Init statements run once when the host starts, before any guest call.
	Init []string `yaml:"init" toml:"init" json:"init" validate:"dive,required"`
	// Queries are the only statements a guest can run.
	Queries      []Query `yaml:"queries" toml:"queries" json:"queries" validate:"unique=Name,dive"`
	MaxOpenConns int     `yaml:"max_open_conns" toml:"max_open_conns" json:"max_open_conns" validate:"gte=0"`
}

// Query is a named statement guests execute with db_exec.
type Query struct {
	Name       string `yaml:"name" toml:"name" json:"name" validate:"required"`
	Type       string `yaml:"type" toml:"type" json:"type" validate:"required,oneof=insert select" jsonschema:"enum=insert,enum=select"`
	SQL        string `yaml:"query" toml:"query" json:"query" validate:"required"`
	VarCount   int    `yaml:"var_count" toml:"var_count" json:"var_count" validate:"gte=0"`
	Positional bool   `yaml:"positional" toml:"positional" json:"positional"`
}

// GraphQLConfig configures graphql_query.
type GraphQLConfig struct {
	Enabled         bool              `yaml:"enabled" toml:"enabled" json:"enabled"`
	Timeout         Duration          `yaml:"timeout" toml:"timeout" json:"timeout"`
	Headers         map[string]string `yaml:"headers" toml:"headers" json:"headers"`
	MaxResponseSize int64             `yaml:"max_response_size" toml:"max_response_size" json:"max_response_size" validate:"gte=0"`
	// AllowedHosts restricts endpoints to matching hostnames, *.suffix
	// wildcards, IPs or CIDRs.
	AllowedHosts []string `yaml:"allowed_hosts" toml:"allowed_hosts" json:"allowed_hosts" validate:"omitempty,dive,required"`
	// AllowPrivate permits loopback and private network endpoints.
	AllowPrivate bool `yaml:"allow_private" toml:"allow_private" json:"allow_private"`
}

// FileConfig configures get_static_file.
type FileConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	// Dir is the directory served to guests. Names resolve inside it only.
	Dir string `yaml:"dir" toml:"dir" json:"dir" validate:"required_if=Enabled true"`
}

// LogConfig configures host logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" toml:"format" json:"format" validate:"omitempty,oneof=text json" jsonschema:"enum=text,enum=json"`
}

// Default returns the configuration used when no file is given: an
// in-process cache and nothing else.
func Default() *Config {
	cfg := &Config{}
	cfg.Capabilities.Cache.Enabled = true
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Capabilities.Cache.Backend == "" {
		c.Capabilities.Cache.Backend = BackendMemory
	}
	if c.Capabilities.DB.Driver == "" {
		c.Capabilities.DB.Driver = "sqlite"
	}
	if c.Capabilities.GraphQL.Timeout == 0 {
		c.Capabilities.GraphQL.Timeout = Duration(30 * time.Second)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.MaxRequestSize == 0 {
		c.MaxRequestSize = 1 << 20
	}
}

// Duration is a time.Duration written as a string such as "30s" or "1m30s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// JSONSchema describes Duration as a Go duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 30s or 1m30s",
	}
}
