package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *HostConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if len(c.Servers) == 0 {
		return errors.New("servers must list at least one server")
	}
	seen := make(map[string]int, len(c.Servers))
	for i, s := range c.Servers {
		prefix := fmt.Sprintf("servers[%d]", i)
		if err := s.validate(prefix); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if j, dup := seen[key]; dup {
			return fmt.Errorf("%s.name %q collides with servers[%d].name", prefix, s.Name, j)
		}
		seen[key] = i
	}

	if c.Audit.Enabled {
		if err := c.Audit.Database.validate("audit.database"); err != nil {
			return err
		}
		if c.Audit.BatchSize < 1 {
			return errors.New("audit.batch_size must be >= 1")
		}
		if c.Audit.BufferSize < 1 {
			return errors.New("audit.buffer_size must be >= 1")
		}
		if c.Audit.FlushInterval <= 0 {
			return errors.New("audit.flush_interval must be > 0")
		}
	}

	return nil
}

func (s *ServerConfig) validate(prefix string) error {
	if s.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if strings.ContainsAny(s.Name, " \t") {
		return fmt.Errorf("%s.name %q must not contain whitespace", prefix, s.Name)
	}
	if s.Command == "" {
		return fmt.Errorf("%s.command is required", prefix)
	}
	for j, label := range s.Commands {
		if label == "" || strings.ContainsAny(label, " \t") {
			return fmt.Errorf("%s.commands[%d] must be a single word, got %q", prefix, j, label)
		}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
