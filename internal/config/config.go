package config

import "time"

// HostConfig is the root configuration for a remotecmd host.
type HostConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Console  ConsoleConfig  `yaml:"console"`
	Log      LogConfig      `yaml:"log"`
	Servers  []ServerConfig `yaml:"servers"`
	Audit    AuditConfig    `yaml:"audit"`
}

// InstanceConfig identifies this host.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ConsoleConfig holds operator console settings.
type ConsoleConfig struct {
	Prompt string `yaml:"prompt"`
}

// LogConfig holds slog handler settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ServerConfig describes one server process launched by the host.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Dir     string            `yaml:"dir"`
	Env     map[string]string `yaml:"env"`

	// Commands restricts which command labels are passed to the process.
	// Empty means every label is passed through.
	Commands []string `yaml:"commands"`
}

// AuditConfig holds the optional forwarded-command audit trail.
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
