// migrate applies the session store schema to DATABASE_URL.
package main

import (
	"flag"
	"os"

	"github.com/jrsteele09/go-task-server/internal/config"
	"github.com/jrsteele09/go-task-server/internal/db/migrate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "up or down")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := config.New()
	if err := migrate.Run(c.GetDatabaseURL(), *direction); err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("Migration failed")
	}
	log.Info().Str("direction", *direction).Msg("Migration complete")
}
