package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/parley/internal/auth"
	"github.com/nfrund/parley/internal/config"
	"github.com/nfrund/parley/internal/database"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/logging"
	"github.com/nfrund/parley/internal/presence"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/realtime"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	users    domain.UserRepository
	chats    domain.ChatRepository
	messages domain.MessageRepository

	tokens   *auth.TokenManager
	bus      *pubsub.WatermillBus
	hub      *realtime.Hub
	router   *realtime.Router
	fanout   *realtime.Fanout
	presence *presence.Service

	cancel      context.CancelFunc
	otelCleanup func()
	wsHandler   *realtime.Handler
}

// New wires the whole application together: config, database, stores, the
// message bus and the real-time stack.
func New() *Server {
	logging.New()
	cfg := config.New()
	logger := slog.Default()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	userStore := database.NewSurrealUserStore(db)
	chatStore := database.NewSurrealChatStore(db, userStore)
	messageStore := database.NewSurrealMessageStore(db, userStore)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	ctx, cancel := context.WithCancel(context.Background())

	bus := pubsub.NewWatermillBus()
	var publisher pubsub.Publisher = bus
	otelCleanup := func() {}

	tracingCfg := pubsub.LoadTracingConfigFromEnv()
	if tracingCfg.Enabled {
		tracer, cleanup, err := pubsub.SetupOTel(ctx, tracingCfg)
		if err != nil {
			logger.Error("Failed to set up tracing, continuing without it", "error", err)
		} else {
			publisher = pubsub.NewTracingPublisher(bus, tracer)
			otelCleanup = cleanup
		}
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	rtRouter := realtime.NewRouter(hub, publisher, logger)
	fanout := realtime.NewFanout(bus, hub, logger)
	fanout.Start(ctx)

	presenceSvc := presence.NewService(publisher, logger)
	if err := presenceSvc.Start(ctx, bus); err != nil {
		logger.Error("Failed to start presence service", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Validator = handlers.NewValidator()

	return &Server{
		E:           e,
		DB:          db,
		Cfg:         cfg,
		users:       userStore,
		chats:       chatStore,
		messages:    messageStore,
		tokens:      tokens,
		bus:         bus,
		hub:         hub,
		router:      rtRouter,
		fanout:      fanout,
		presence:    presenceSvc,
		cancel:      cancel,
		otelCleanup: otelCleanup,
		wsHandler:   realtime.NewHandler(hub, rtRouter, logger),
	}
}

// Users is a getter for the server's user store, useful for testing.
func (s *Server) Users() domain.UserRepository {
	return s.users
}
