package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valor/internal/bot"
	"valor/internal/common"
	"valor/internal/config"
	"valor/internal/logger"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.Debug)
	log.Info().Msg("Hello from inside valor")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Bot stopped with an error")
	}
	log.Info().Msg("Bye")
}

// Owns every resource of the bot. Its deferred cleanups run before main exits
func run(cfg config.Config) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rate limiter shared by every command
	limiter := common.NewRateLimiter[string](common.DefaultLimiterConfig(), time.Now)

	// Command log, only when a database is configured
	var commandLog bot.CommandLog
	if cfg.Database.Enabled() {
		database, err := bot.CreateDatabaseBot(ctx, cfg.Database.ConnString())
		if err != nil {
			log.Error().Err(err).Msg("Command log disabled, could not connect to the database")
		} else {
			defer database.Close()
			commandLog = database
		}
	} else {
		log.Info().Msg("Command log disabled, no database configured")
	}

	// Create bot
	discordBot, err := bot.CreateBot(cfg.DiscordToken, cfg.CommandGuildIds, limiter, commandLog, cfg.HousekeepingInterval)
	if err != nil {
		return errors.WithMessage(err, "could not create discord bot")
	}

	// Run bot
	return discordBot.Run(ctx)
}
