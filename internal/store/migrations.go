package store

import (
	"database/sql"
	"log"

	"github.com/pressly/goose/v3"

	assets "github.com/haatos/stageflow"
	"github.com/haatos/stageflow/internal"
)

func RunMigrations(db *sql.DB) {
	goose.SetBaseFS(assets.MigrationsFS)
	if err := goose.SetDialect("sqlite"); err != nil {
		log.Fatal(err)
	}
	if err := goose.Up(db, internal.MigrationsDir); err != nil {
		log.Fatal(err)
	}
}
