package main

import (
	"database/sql"
	"flag"
	"io/fs"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spotlight2/coach/db"
	"github.com/spotlight2/coach/internal/config"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status or reset")
		dir     = flag.String("dir", "", "Read migrations from this directory instead of the embedded set")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "migrator").Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	pg, err := config.LoadPostgres()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	var (
		source fs.FS = db.Migrations
		path         = "migrations"
	)
	if *dir != "" {
		source, path = nil, *dir
		if _, err := os.Stat(path); err != nil {
			log.Fatal().Err(err).Str("dir", path).Msg("migration directory not readable")
		}
	}

	conn, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Msg("failed to open database connection")
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("host", pg.Host).
		Str("database", pg.Database).
		Str("source", path).
		Msg("connected to database")

	goose.SetBaseFS(source)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("failed to set dialect")
	}

	switch *command {
	case "up":
		err = goose.Up(conn, path)
	case "down":
		err = goose.Down(conn, path)
	case "status":
		err = goose.Status(conn, path)
	case "reset":
		err = goose.Reset(conn, path)
	default:
		log.Fatal().Str("command", *command).Msg("unknown command, use up, down, status or reset")
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
	log.Info().Str("command", *command).Msg("migration finished")
}
