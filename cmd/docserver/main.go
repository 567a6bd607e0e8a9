// Command docserver serves the document HTTP API.
//
// Rendered documents are cached in redis and archived to Cloud Storage when
// REDIS_ADDRESS and GCS_BUCKET are set. See the config package for every
// environment variable.
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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/alqadi/procuredocs/config"
	"github.com/alqadi/procuredocs/httpapi"
	"github.com/alqadi/procuredocs/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := cfg.Engine(logger)
	if err != nil {
		return err
	}

	svcOpts := []service.Option{service.WithLogger(logger)}
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, PoolSize: 100})
		defer rdb.Close()
		if err := pingRedis(sigCtx, rdb, logger); err != nil {
			return err
		}
		svcOpts = append(svcOpts,
			service.WithCache(service.NewRedisCache(rdb), cfg.CacheTTL),
			service.WithLocker(service.NewRedisLocker(rdb), 30*time.Second),
		)
	}
	if cfg.GCSBucket != "" {
		var gcsOpts []option.ClientOption
		if cfg.GCSCredentialsJSON != "" {
			gcsOpts = append(gcsOpts, option.WithCredentialsJSON([]byte(cfg.GCSCredentialsJSON)))
		}
		archive, err := service.NewGCSArchive(sigCtx, cfg.GCSBucket, cfg.GCSPrefix, gcsOpts...)
		if err != nil {
			return err
		}
		defer archive.Close()
		svcOpts = append(svcOpts, service.WithArchive(archive))
	}
	svc := service.New(eng, svcOpts...)

	handler := httpapi.New(eng,
		httpapi.WithGenerator(svc),
		httpapi.WithLogger(logger),
		httpapi.WithAllowedOrigins(cfg.AllowedOrigins...),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{"port": cfg.Port, "cache": cfg.RedisAddress != "", "archive": cfg.GCSBucket != ""}).Info("docserver listening")

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// pingRedis waits for redis with exponential backoff, giving up after five
// attempts.
func pingRedis(ctx context.Context, rdb *redis.Client, logger logrus.FieldLogger) error {
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			return nil
		}
		sleep := time.Second << attempt
		logger.WithFields(logrus.Fields{"attempt": attempt, "addr": rdb.Options().Addr}).WithError(err).Warn("redis not reachable, retrying in " + sleep.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return fmt.Errorf("connecting to redis: %w", err)
}
