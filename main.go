package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"musebot/internal/adapters/corpus"
	"musebot/internal/adapters/file"
	"musebot/internal/adapters/generator"
	"musebot/internal/adapters/handler"
	"musebot/internal/adapters/sender"
	"musebot/internal/core/domain"
	"musebot/internal/core/domain/commands"
	"musebot/internal/core/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting musebot...")

	viper.AddConfigPath(".")
	viper.SetConfigType("toml")

	viper.SetDefault("suno.base_url", "https://api.sunoapi.org/api/v1")
	viper.SetDefault("suno.session_timeout", "10m")
	viper.SetDefault("suno.poll_interval", "2.5s")
	viper.SetDefault("corpus.search_k", 5)
	viper.SetDefault("output.dir", "outputs")
	viper.SetDefault("handler.timeout", "15m")

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	token := viper.GetString("telegram.bot_token")
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegramSender(b)

	orGenerator := generator.NewOpenRouter(
		viper.GetString("openrouter.api_key"),
		viper.GetString("openrouter.model"))

	store, err := corpus.Open(viper.GetString("corpus.db_path"))
	if err != nil {
		log.Panic().Err(err).Msg("failed opening lyrics corpus")
	}
	defer store.Close()

	if count, err := store.Count(ctx); err == nil {
		log.Info().Int("lyrics", count).Msg("lyrics corpus loaded")
	}

	sessionTimeout, err := time.ParseDuration(viper.GetString("suno.session_timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid session timeout in config")
	}

	pollInterval, err := time.ParseDuration(viper.GetString("suno.poll_interval"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid poll interval in config")
	}

	sunoGenerator := generator.NewSuno(
		viper.GetString("suno.base_url"),
		viper.GetString("suno.api_key"),
		sessionTimeout,
		pollInterval,
		viper.GetBool("suno.verbose"))

	payloads := service.NewPayloadBuilder()
	credits := service.NewCreditTracker(ctx, s)

	auth, err := service.NewAuthorizer(s)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing authorizer")
	}

	audioStore := file.NewAudioStore(viper.GetString("output.dir"))
	searchK := viper.GetInt("corpus.search_k")

	commandRegistry := &domain.CommandRegistry{}
	commandRegistry.Register(commands.NewSongHandler(
		orGenerator, store, orGenerator, sunoGenerator, audioStore,
		payloads, s, s, credits, searchK, "/song"))
	commandRegistry.Register(commands.NewLyricsHandler(
		orGenerator, store, orGenerator, s, searchK, "/lyrics"))
	commandRegistry.Register(commands.NewTrackHandler(sunoGenerator, s, "/track"))

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for handler in config")
	}

	commandHandler := handler.NewCommand(commandRegistry, auth, handlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
