package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/remotecmd/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	user := url.QueryEscape(cfg.User)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	// Password is optional; peer and trust auth setups leave it empty.
	auth := user
	if cfg.Password != "" {
		auth = user + ":" + url.QueryEscape(cfg.Password)
	}

	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		auth,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
