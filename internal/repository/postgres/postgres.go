package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/trudify/trudify-core/internal/config"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	// raised for ids that are not valid uuids
	pqInvalidTextRepresentation = "22P02"
)

type Postgres struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewDB(cfg config.Postgres, log *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("connected to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)

	return &Postgres{
		db:  db,
		log: log,
	}, nil
}

func (p *Postgres) DB() *sqlx.DB {
	return p.db
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// isNoRows reports whether err means the requested row cannot exist, either
// because nothing matched or because the id is not a valid uuid.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepresentation
}
