package main

import (
	"database/sql"
	"errors"
	"flag"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/zaryan/api/internal/config"
	"github.com/zaryan/api/internal/logger"
	"go.uber.org/zap"
)

// Usage: migrate [up|down|version|force N]
func main() {
	flag.Parse()
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("create migrate driver", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		log.Fatal("create migrate instance", zap.Error(err))
	}

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal("read version", zap.Error(verr))
		}
		log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return
	case "force":
		v, perr := strconv.Atoi(flag.Arg(1))
		if perr != nil {
			log.Fatal("force needs a version number", zap.String("arg", flag.Arg(1)))
		}
		err = m.Force(v)
	default:
		log.Fatal("unknown command", zap.String("command", cmd))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("migrate "+cmd, zap.Error(err))
	}
	log.Info("migrations applied", zap.String("command", cmd))
}
