package conn

import (
	"database/sql"

	"github.com/anujaroke/Task-Vault/internal/config"
	"github.com/anujaroke/Task-Vault/internal/db"
)

// Open loads config from the environment and opens the database. The CLI talks
// to the database directly; it does not go through the web server.
func Open() (*sql.DB, config.Config, error) {
	cfg := config.Load()
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		return nil, cfg, err
	}
	return database, cfg, nil
}
