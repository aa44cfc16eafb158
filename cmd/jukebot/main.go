// Package main provides the jukebot entry point.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/logger"
	_ "github.com/sglre6355/jukebot/internal/modules/music_player"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/jukebot
var version = "dev"

var (
	app     = kingpin.New("jukebot", "Discord music bot backed by Lavalink")
	envFile = app.Flag("env-file", "Path to a .env file (missing files are ignored)").Default(".env").String()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	pretty  = app.Flag("pretty", "Human-readable console logs instead of JSON").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger.Init(logger.Config{Level: level, Pretty: *pretty})

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		zlog.Warn().Err(err).Str("path", *envFile).Msg("failed to load env file")
	}

	zlog.Info().Str("version", version).Msg("starting jukebot")

	cfg, err := bot.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	b := bot.NewBot(cfg)
	b.LoadModules()

	if err := b.Start(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start bot")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zlog.Info().Msg("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		zlog.Error().Err(err).Msg("failed to shutdown")
	}

	zlog.Info().Msg("completed bot shutdown")
}
