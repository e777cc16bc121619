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
	"github.com/jrsteele09/atelier-portal/backend"
	"github.com/jrsteele09/atelier-portal/internal/config"
	"github.com/jrsteele09/atelier-portal/server"
	"github.com/jrsteele09/atelier-portal/server/browsersession"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/jrsteele09/atelier-portal/storage/file"
	"github.com/jrsteele09/atelier-portal/storage/memory"
	"github.com/jrsteele09/atelier-portal/storage/redisstore"
	"github.com/jrsteele09/atelier-portal/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable .env")
	}
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	provider, closeStorage, err := newStorageProvider(c)
	if err != nil {
		return err
	}
	defer closeStorage()

	client := backend.New(c.GetAPIBaseURL(), c.GetAPITimeout())
	expiry := token.NewJWTExpiry()
	sessions := browsersession.NewInMemoryRepo(func(browserID string) (*session.Store, error) {
		return session.NewStore(provider.For(browserID), client, expiry,
			session.WithLogger(log.With().Str("browser", browserID).Logger()))
	})

	handler, err := server.New(c, client, sessions)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepIdleSessions(ctx, sessions, c.GetSessionIdleTimeout())

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// newStorageProvider builds the browser storage backend named in the config
func newStorageProvider(c config.Config) (session.StorageProvider, func(), error) {
	noop := func() {}
	switch c.GetStorageBackend() {
	case config.StorageFile:
		p, err := file.New(c.GetDataFolder())
		if err != nil {
			return nil, noop, fmt.Errorf("file storage: %w", err)
		}
		log.Info().Str("folder", c.GetDataFolder()).Msg("Browser storage: files")
		return p, noop, nil
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		p := redisstore.New(rdb, c.GetSessionKeyPrefix(), c.GetBrowserCookieMaxAge())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis storage: %w", err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Browser storage: redis")
		return p, func() { _ = rdb.Close() }, nil
	default:
		log.Info().Msg("Browser storage: memory")
		return memory.New(), noop, nil
	}
}

func sweepIdleSessions(ctx context.Context, sessions *browsersession.InMemoryRepo, maxIdle time.Duration) {
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(maxIdle); n > 0 {
				log.Debug().Int("evicted", n).Int("remaining", sessions.Len()).Msg("Swept idle browser sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
