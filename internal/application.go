package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/config"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/docstore"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/identity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/recorder"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/repository"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/service"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-recorder/transport/rest"
	"github.com/rocketscienceinc/tictactoe-recorder/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, closeStore, err := openDocStore(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Info("document store is ready", "driver", conf.Storage.Driver)

	sqliteStorage, err := storage.NewSQLite(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	gameRecorder := recorder.New(logger, store, collector, conf.Recorder.Timeout)
	gameUseCase := usecase.NewGameUseCase(logger, gameRecorder, collector)

	// runs before the stores are closed.
	defer func() {
		log.Info("Waiting for pending game records")
		gameUseCase.Wait()
	}()

	userUseCase := usecase.NewUserUseCase(repository.NewUserRepository(sqliteStorage.Connection))
	authService := service.NewAuthService(conf.JWTSecretKey)

	googleProvider := identity.NewGoogleProvider(identity.GoogleConfig{
		ClientID:     conf.GoogleOAuth.ClientID,
		ClientSecret: conf.GoogleOAuth.ClientSecret,
		RedirectURL:  conf.GoogleOAuth.RedirectURL,
		Scopes:       conf.GoogleOAuth.Scopes,
	})

	restServer := rest.New(logger, conf.SessionSecretKey,
		rest.NewAuth(logger, googleProvider, authService, userUseCase),
		rest.NewAPI(logger, gameUseCase, authService),
		metrics.Handler(registry),
	)

	wsServer := websocket.New(logger, gameUseCase, authService, websocket.Limits{
		TurnsPerSecond: conf.RateLimit.TurnsPerSecond,
		Burst:          conf.RateLimit.Burst,
	})

	group, groupCtx := errgroup.WithContext(ctx)

	// run HTTP server
	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	// run Websocket server
	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// openDocStore - picks the document store backend by the configured driver.
func openDocStore(ctx context.Context, conf *config.Config) (docstore.Store, func(), error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		client, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		indexes := docstore.Indexes{
			entity.GamesCollection: {entity.FieldWinner, entity.FieldOwnerID},
		}

		return docstore.NewRedis(client, indexes), func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		if err := storage.MigratePostgres(conf.Postgres.URL); err != nil {
			return nil, nil, fmt.Errorf("could not migrate postgres storage: %w", err)
		}

		db, err := storage.NewPostgres(ctx, conf.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		return docstore.NewPostgres(db), func() { _ = db.Close() }, nil

	default:
		return docstore.NewMemory(), func() {}, nil
	}
}
