package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-task-server/internal/config"
	"github.com/jrsteele09/go-task-server/internal/db/migrate"
	"github.com/jrsteele09/go-task-server/internal/metrics"
	"github.com/jrsteele09/go-task-server/internal/storage"
	"github.com/jrsteele09/go-task-server/server"
	"github.com/jrsteele09/go-task-server/token"
	"github.com/jrsteele09/go-task-server/token/keys"
	fakeuserrepo "github.com/jrsteele09/go-task-server/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c := config.New()
	setupLogging(c)

	if err := config.Validate(c); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	for {
		if err := run(c); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	// Key material problems are never retried; the secrets themselves are not logged.
	material, err := keys.LoadMaterial(c.GetKeyMaterialSource())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load token keys")
	}
	codec, err := token.NewCodec(material, token.WithIssuer(c.GetTokenIssuer()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token codec")
	}

	ctx := context.Background()
	if c.GetStoreDriver() == config.StoreDriverPostgres {
		if err := migrate.Run(c.GetDatabaseURL(), migrate.DirectionUp); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	sessionRepo, closeSessions, err := storage.OpenSessions(ctx, c)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer closeSessions()

	displayAppname(c.GetAppName())

	handler, err := server.New(c, server.Repos{
		Sessions: sessionRepo,
		Users:    fakeuserrepo.NewFakeUserRepo(),
	}, codec, metrics.New())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
