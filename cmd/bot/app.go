package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-community-bot/internal/config"
	"github.com/KirkDiggler/rpg-community-bot/internal/data"
	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/clash"
	"github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/rpg-community-bot/internal/redis"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

const shutdownTimeout = 30 * time.Second

// app holds the wired services for one command invocation
type app struct {
	cfg      *config.Config
	catalog  *data.Catalog
	docs     documents.Repository
	profiles profile.Service
	clashes  clash.Service

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	a := &app{cfg: cfg}

	a.catalog, err = data.NewLoader([]string{filepath.Dir(cfg.Data.Catalog)}).
		LoadCatalog(filepath.Base(cfg.Data.Catalog))
	if err != nil {
		return nil, err
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	a.profiles, err = profile.NewOrchestrator(&profile.Config{
		DocumentRepo:  a.docs,
		Clock:         clock.New(),
		IDGenerator:   idgen.NewUUID("evt"),
		SaveRetries:   cfg.Session.SaveRetries,
		RetryInterval: cfg.Session.RetryInterval,
		Timeouts:      cfg.KindTimeouts(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create profile service")
	}

	a.clashes, err = clash.NewOrchestrator(&clash.Config{
		ProfileService: a.profiles,
		DocumentRepo:   a.docs,
		Catalog:        a.catalog,
		DiceRoller:     dice.DefaultRoller,
		IDGenerator:    idgen.NewUUID("cc"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create clash service")
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.BackendRedis:
		client, err := redisclient.Connect(ctx, a.cfg.Redis.Endpoint, &redisclient.Options{
			PoolSize: a.cfg.Redis.PoolSize,
			UseTLS:   a.cfg.Redis.UseTLS,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)

		a.docs, err = documents.NewRedis(&documents.RedisConfig{Client: client})
		if err != nil {
			return errors.Wrap(err, "failed to create document repository")
		}
		slog.DebugContext(ctx, "Using redis document store", "endpoint", a.cfg.Redis.Endpoint)
	default:
		mem := documents.NewInMemory(nil)
		if err := seedCharacters(ctx, mem, a.catalog); err != nil {
			return err
		}
		a.docs = mem
		slog.DebugContext(ctx, "Using in-memory document store", "seeded_characters", len(a.catalog.Characters))
	}
	return nil
}

// seedCharacters stores the catalog's demo characters so the in-memory
// store starts out looking like a populated one
func seedCharacters(ctx context.Context, repo documents.Repository, catalog *data.Catalog) error {
	for _, c := range catalog.Characters {
		payload, err := json.Marshal(c)
		if err != nil {
			return errors.Wrapf(err, "failed to encode demo character %s", c.ID)
		}
		if _, err := repo.Save(ctx, documents.SaveInput{
			Collection: entities.CollectionCombatCharacters,
			ID:         c.ID,
			Data:       payload,
		}); err != nil {
			return errors.Wrapf(err, "failed to seed demo character %s", c.ID)
		}
	}
	return nil
}

// close flushes pending profile writes and releases the store
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if a.profiles != nil {
		if err := a.profiles.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "Profile shutdown incomplete", "error", err)
			firstErr = err
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
