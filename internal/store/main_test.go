package store

import (
	"database/sql"
	"log"
	"os"
	"testing"
)

var (
	pipelineStore *PipelineSQLiteStore
	runStore      *RunSQLiteStore
)

func TestMain(m *testing.M) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	// every pooled connection to :memory: would open its own database
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		log.Fatal(err)
	}

	RunMigrations(db)

	pipelineStore = NewPipelineSQLiteStore(db, db)
	runStore = NewRunSQLiteStore(db, db)
	code := m.Run()
	db.Close()
	os.Exit(code)
}
