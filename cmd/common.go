package cmd

import (
	"context"
	"time"

	"livesync/core/config"
	"livesync/core/database"
	"livesync/core/debounce"
	"livesync/core/errors"
	"livesync/core/logger"
	"livesync/core/reconcile"
	"livesync/core/snapshot"
	"livesync/core/storage"
	"livesync/core/subscription"
	"livesync/core/transport"
	"livesync/feature/group"

	"go.uber.org/zap"
)

// runtime is the connected client shared by watch and serve.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	ws       *transport.WebSocket
	registry *subscription.Registry
	group    *group.Group
	store    snapshot.Store
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, logg, nil
}

// newRuntime builds the transport, registry and group. The snapshot cache
// is preloaded before the group subscribes.
func newRuntime(ctx context.Context, specs []string) (*runtime, error) {
	defs, err := parseItems(specs)
	if err != nil {
		return nil, err
	}
	cfg, logg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logg}
	rt.ws = transport.NewWebSocket(cfg.Transport, logg)
	rt.registry = subscription.New(subscription.WithLogger(logg))
	rt.registry.Bind(rt.ws)

	rt.store, err = openStore(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	if rt.store != nil {
		entries, err := rt.store.Load(ctx)
		if err != nil {
			logg.Warn("Failed to load snapshots", zap.Error(err))
		} else if err := snapshot.Preload(rt.registry, entries, defs); err != nil {
			logg.Warn("Skipping snapshots captured from other items", zap.Error(err))
		} else if len(entries) > 0 {
			logg.Info("Preloaded snapshots", zap.Int("entries", len(entries)))
		}
	}

	opts := append(cfg.Group.Options(), group.WithLogger(logg))
	rt.group, err = group.New(rt.registry, defs, opts...)
	if err != nil {
		return nil, err
	}
	logEvents(rt.group, logg)
	return rt, nil
}

// openStore returns the configured snapshot store, or nil when snapshots
// are disabled.
func openStore(ctx context.Context, cfg *config.Config, logg *zap.Logger) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case snapshot.BackendDatabase:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		store := snapshot.NewDBStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		logg.Info("Snapshot store ready", zap.String("backend", "database"), zap.String("driver", cfg.Database.Driver))
		return store, nil
	case snapshot.BackendStorage:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		store := snapshot.NewObjectStore(client, cfg.Storage.Bucket, cfg.Storage.Prefix)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logg.Info("Snapshot store ready", zap.String("backend", "storage"), zap.String("object", store.Key()))
		return store, nil
	default:
		return nil, nil
	}
}

func logEvents(g *group.Group, logg *zap.Logger) {
	for _, name := range []string{group.EventLoad, group.EventInit, group.EventUnload} {
		g.On(name, func(e group.Event) {
			logg.Info("Group "+e.Name, zap.Strings("items", e.Values.Names()))
		})
	}
	for _, it := range g.Items() {
		l := logg.With(logger.Item(it.Name()))
		it.On(group.EventUpdate, func(e group.Event) {
			l.Info("Item updated", changeFields(e.Changes)...)
		})
	}
}

func changeFields(c reconcile.Changes) []zap.Field {
	switch c := c.(type) {
	case *reconcile.RecordChanges:
		return []zap.Field{zap.Int("fields", len(c.Fields)), zap.Int("deleted", len(c.Deleted))}
	case *reconcile.ListChanges:
		return []zap.Field{zap.Int("items", len(c.Items)), zap.Int("added", len(c.Added)), zap.Int("deleted", len(c.Deleted))}
	case *reconcile.CollectionChanges:
		return []zap.Field{zap.Int("items", len(c.Items)), zap.Int("added", len(c.Added)), zap.Int("deleted", len(c.Deleted))}
	default:
		return nil
	}
}

// persist saves a snapshot of the group after updates settle, and once more
// when ctx ends.
func (rt *runtime) persist(ctx context.Context) error {
	if rt.store == nil {
		return nil
	}
	save := func(ctx context.Context) {
		if !rt.group.IsLoaded() {
			return
		}
		if err := rt.store.Save(ctx, snapshot.Capture(rt.group)); err != nil {
			rt.logger.Warn("Failed to save snapshots", zap.Error(err))
			return
		}
		rt.logger.Debug("Snapshots saved")
	}

	wait := time.Duration(rt.cfg.Snapshot.SaveDebounceMs) * time.Millisecond
	d := debounce.New(wait, func() { save(ctx) })
	off := rt.group.On(group.EventUpdate, func(group.Event) { d.Trigger() })
	defer off()

	<-ctx.Done()
	d.Stop()

	// The run context is done; give the last save its own deadline.
	final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	save(final)
	return nil
}

func (rt *runtime) close() {
	rt.group.Close()
	rt.registry.Dispose()
	_ = rt.logger.Sync()
}
