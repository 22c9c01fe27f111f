// Command migrate applies the embedded SQL migrations.
//
//	migrate [up|down|status|redo|reset|version] [args...]
package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/config"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/database"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/migrations"
	"github.com/tablewise/restaurant-backoffice/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{Pretty: true, Service: "migrate"})
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.FromEnv(cfg.Env, cfg.LogLevel, "migrate")

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	url, err := database.NormalizeURL(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("database url")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, command, args...); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	log.Info().Str("command", command).Msg("migrations done")
}
