package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPrompt             = "> "
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultAuditBatchSize     = 100
	DefaultAuditFlushInterval = 2 * time.Second
	DefaultAuditBufferSize    = 256
)

func (c *HostConfig) applyDefaults() {
	if c.Console.Prompt == "" {
		c.Console.Prompt = DefaultPrompt
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Audit defaults apply even when disabled so toggling enabled is enough.
	applyDBDefaults(&c.Audit.Database)
	if c.Audit.BatchSize == 0 {
		c.Audit.BatchSize = DefaultAuditBatchSize
	}
	if c.Audit.FlushInterval == 0 {
		c.Audit.FlushInterval = DefaultAuditFlushInterval
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = DefaultAuditBufferSize
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
