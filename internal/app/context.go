package app

import (
	"database/sql"
	"fmt"
	"os"

	"caseflow/internal/config"
	"caseflow/internal/db"
	"caseflow/internal/engine"
	"caseflow/internal/migrate"
)

// Workspace is an opened caseflow workspace: database migrated, config
// loaded, engine ready.
type Workspace struct {
	DB     *sql.DB
	Config *config.Config
	Engine engine.Engine
}

// Open bootstraps the workspace at dir, seeding a default config file when
// none exists yet so a fresh checkout works without a setup step.
func Open(dir string) (*Workspace, error) {
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if cfg == nil {
		operator := os.Getenv("USER")
		if operator == "" {
			operator = "local-user"
		}
		cfg = config.Default(operator)
		if err := os.WriteFile(config.Path(dir), []byte(config.GenerateDefault(operator)), 0o644); err != nil {
			conn.Close()
			return nil, fmt.Errorf("seed config: %w", err)
		}
	}
	return &Workspace{
		DB:     conn,
		Config: cfg,
		Engine: engine.New(conn, cfg),
	}, nil
}

// Close releases the workspace database.
func (w *Workspace) Close() error {
	if w == nil || w.DB == nil {
		return nil
	}
	return w.DB.Close()
}
