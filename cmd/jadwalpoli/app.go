package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jadwalpoli/internal/config"
	"jadwalpoli/internal/database"
	"jadwalpoli/internal/directory"
	"jadwalpoli/internal/queue"
	"jadwalpoli/internal/simrs"
)

type loader func() (*config.Config, error)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg       *config.Config
	client    *simrs.Client
	db        *database.DB
	rdb       *redis.Client
	directory *directory.Directory
	poller    *queue.Poller
}

func newApp(cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	client := simrs.NewClient(cfg.SIMRS.BaseURL, cfg.SIMRS.APIKey, cfg.SIMRSTimeout(), logger)
	client.UseRateLimit(cfg.SIMRS.RatePerSecond, cfg.SIMRS.Burst)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.DoctorCacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.DoctorCacheTTL())
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	dir := directory.New(client, db, logger,
		directory.WithRetryAfter(cfg.DirectoryRetryAfter()),
		directory.WithNotFound(func(err error) bool { return errors.Is(err, simrs.ErrNotFound) }),
	)

	poller := queue.NewPoller(client, queue.Config{
		Interval:     cfg.PollInterval(),
		FetchTimeout: cfg.FetchTimeout(),
		DiscardStale: cfg.Queue.DiscardStale,
	}, logger)

	return &app{
		cfg:       cfg,
		client:    client,
		db:        db,
		rdb:       rdb,
		directory: dir,
		poller:    poller,
	}, nil
}

func (a *app) Close() {
	a.poller.StopAll()
	_ = a.db.Close()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
