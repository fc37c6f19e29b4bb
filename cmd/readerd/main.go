// Package main is an HTTP and WebSocket service for reading
// explorations.
//
// Explorations are loaded from a directory of YAML files into
// storage (BoltDB if configured, otherwise memory).  See Config for
// the settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/events"
	"github.com/Comcast/pathways/interpreters"
	"github.com/Comcast/pathways/loader"
	"github.com/Comcast/pathways/render"
	"github.com/Comcast/pathways/storage"
	"github.com/Comcast/pathways/storage/bolt"
	"github.com/Comcast/pathways/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := util.NewLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("readerd failed", zap.Error(err))
	}
}

// openStore makes the configured storage.  The returned function
// closes it.
func openStore(ctx context.Context, cfg *Config, is map[string]core.Interpreter, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.DB == "" {
		logger.Info("Using in-memory storage")
		return storage.NewMem(is, logger.Named("mem")), func() {}, nil
	}

	s, err := bolt.NewStorage(cfg.DB, is, logger.Named("bolt"))
	if err != nil {
		return nil, nil, err
	}
	if err := s.Open(ctx); err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", cfg.DB, err)
	}
	logger.Info("Using BoltDB storage", zap.String("filename", cfg.DB))
	return s, func() {
		if err := s.Close(ctx); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
	}, nil
}

// Assemble builds the Server from the configuration.  The returned
// function releases the Server's resources.
func Assemble(ctx context.Context, cfg *Config, logger *zap.Logger) (*Server, func(), error) {
	is := interpreters.Standard(logger)

	store, closeStore, err := openStore(ctx, cfg, is, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := closeStore

	fail := func(err error) (*Server, func(), error) {
		cleanup()
		return nil, nil, err
	}

	n, err := loader.Load(ctx, store, cfg.ExplorationsDir, is, logger.Named("loader"))
	if err != nil {
		return fail(err)
	}
	logger.Info("Stored explorations", zap.Int("count", n))

	catalog, err := loader.ReadCatalog(cfg.Widgets)
	if err != nil {
		return fail(err)
	}

	sinks := events.Multi{
		&events.Log{Logger: logger.Named("events")},
	}
	if cfg.MQTTBroker != "" {
		clientId := cfg.MQTTClientId
		if clientId == "" {
			clientId = "readerd-" + uuid.NewString()
		}
		client, err := events.Connect(ctx, events.MQTTConfig{
			Broker:    cfg.MQTTBroker,
			ClientId:  clientId,
			Reconnect: true,
		}, logger.Named("mqtt"))
		if err != nil {
			return fail(err)
		}
		prev := cleanup
		cleanup = func() {
			client.Disconnect(250)
			prev()
		}
		sinks = append(sinks, events.NewMQTT(client, cfg.MQTTTopic, logger.Named("mqtt")))
	}

	chooser := core.NewRandChooser(time.Now().UnixNano())
	if cfg.Seed != 0 {
		chooser = core.NewRandChooser(cfg.Seed)
	}

	reader := core.NewReader(store, render.NewHTML(catalog, logger.Named("render")), catalog)
	reader.Events = sinks
	reader.Chooser = chooser
	reader.Logger = logger.Named("reader")

	return NewServer(reader, store, chooser, logger.Named("http")), cleanup, nil
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	s, cleanup, err := Assemble(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
