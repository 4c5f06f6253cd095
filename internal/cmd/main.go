package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/access"
	"github.com/quizzit/quizzit/internal/events"
	"github.com/quizzit/quizzit/internal/gateway"
	"github.com/quizzit/quizzit/internal/question"
	"github.com/quizzit/quizzit/internal/quiz"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if getEnvAsBool("DEBUG", false) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	bank, cleanup, err := setupQuestionBank(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up question bank")
	}
	defer cleanup()

	var sink quiz.EventSink
	var publisher *events.JetStreamPublisher
	natsEnabled := getEnvAsBool("NATS_ENABLED", false)
	if natsEnabled {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = getEnv("NATS_URL", nats.DefaultURL)
		publisher, err = events.NewJetStreamPublisher(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event publisher")
		}
		defer publisher.Close()
		sink = publisher
	}

	// The router is created after the connection manager because each needs
	// the other; the closure defers the lookup until frames arrive.
	var router *gateway.Router
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(),
		func(chatID, participantID, displayName string, message []byte) {
			if router != nil {
				router.Handle(chatID, participantID, displayName, message)
			}
		})

	transport := gateway.NewTransport(cm)
	svc := quiz.NewService(quizConfig(config), transport, bank, sink, nil)

	admins := config.Quiz.AdminParticipantIDs
	if id := os.Getenv("ADMIN_PARTICIPANT_ID"); id != "" {
		admins = append(admins, id)
	}
	app := quiz.NewApp(svc, access.NewAllowList(admins))
	router = gateway.NewRouter(app, transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cm.Start(ctx)

	if natsEnabled {
		consumerCfg := gateway.DefaultJetStreamConsumerConfig()
		consumerCfg.URL = getEnv("NATS_URL", nats.DefaultURL)
		consumer, err := gateway.NewEventConsumer(cm, consumerCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start event consumer")
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	server := setupServer(gateway.NewWebSocketHandler(cm))

	go func() {
		log.Info().Str("addr", server.Addr).Msg("quiz gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// setupQuestionBank selects the question source: a JSON file by default, or
// Postgres when QUESTION_SOURCE=postgres.
func setupQuestionBank(config *Config) (quiz.QuestionBank, func(), error) {
	limit := config.Quiz.QuestionsPerRound

	switch getEnv("QUESTION_SOURCE", "file") {
	case "postgres":
		db, err := setupDatabase()
		if err != nil {
			return nil, nil, err
		}
		return question.NewRepository(db, limit), func() { db.Close() }, nil
	default:
		path := getEnv("QUESTIONS_FILE", "questions.json")
		return question.NewFileBank(path, limit, true), func() {}, nil
	}
}
