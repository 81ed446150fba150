// Package lnrs is the public entry point for the LNRS database lifecycle
// core. It wires the store, transactional executor, cascade planner,
// snapshot manager, and restore coordinator in dependency order and hands
// back a single App handle. The CLI and embedding programs consume only
// this package.
package lnrs

import (
	"os"

	"github.com/stevecrawshaw/lnrsdb/internal/cascade"
	"github.com/stevecrawshaw/lnrsdb/internal/entity"
	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/schema"
	"github.com/stevecrawshaw/lnrsdb/internal/snapshot"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Version is the lnrsdb release version.
const Version = "0.1.0"

// MAPKey identifies one measure-area-priority link. Aliased here so
// embedding programs can construct keys for the Links methods.
type MAPKey = entity.MAPKey

// SnapshotFilter narrows snapshot listings. Aliased here for the same
// reason as MAPKey.
type SnapshotFilter = snapshot.ListFilter

// App bundles the lifecycle components wired over one live database.
type App struct {
	Config    types.Config
	Log       *oplog.Log
	Store     *store.Store
	Executor  *store.Executor
	Graph     *cascade.Graph
	Planner   *cascade.Planner
	Snapshots *snapshot.Manager
	Restorer  *snapshot.Coordinator
	Measures  *entity.Measures
	Links     *entity.Links
}

// Open attaches to an existing database and wires every component. The
// snapshot manager doubles as the snapshot gate for the cascade planner and
// the link mutator. Returns types.ErrDatabaseMissing when no database file
// exists at the configured path.
func Open(cfg types.Config) (*App, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := oplog.Initialize(oplog.Config{
		Dir:             cfg.LogDir,
		Level:           cfg.LogLevel,
		Format:          cfg.LogFormat,
		SlowOpThreshold: cfg.SlowOpThreshold,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		log.Close()
		return nil, err
	}

	graph, err := cascade.NewGraph()
	if err != nil {
		st.Close()
		log.Close()
		return nil, err
	}

	exec := store.NewExecutor(st, log)
	mgr := snapshot.NewManager(cfg, log)

	return &App{
		Config:    cfg,
		Log:       log,
		Store:     st,
		Executor:  exec,
		Graph:     graph,
		Planner:   cascade.NewPlanner(st, exec, graph, mgr, log),
		Snapshots: mgr,
		Restorer:  snapshot.NewCoordinator(st, mgr, cfg, log),
		Measures:  entity.NewMeasures(st, exec, log),
		Links:     entity.NewLinks(st, exec, mgr, log),
	}, nil
}

// Init creates a new database at the configured path, seeds the lookup
// tables, optionally fills demo data, and opens the result. Returns
// types.ErrDatabaseExists when a database file is already present.
func Init(cfg types.Config, demo bool) (*App, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Init(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	if demo {
		db, dbErr := st.DB()
		if dbErr == nil {
			dbErr = schema.SeedDemo(db)
		}
		if dbErr != nil {
			st.Close()
			return nil, dbErr
		}
	}
	if err := st.Close(); err != nil {
		return nil, err
	}

	return Open(cfg)
}

// Status reports the live database file, its per-table row counts, and the
// snapshot inventory size.
type Status struct {
	DatabasePath string           `json:"database_path"`
	SizeBytes    int64            `json:"size_bytes"`
	Tables       map[string]int64 `json:"tables"`
	Snapshots    int              `json:"snapshots"`
}

// Status collects the current database status.
func (a *App) Status() (*Status, error) {
	db, err := a.Store.DB()
	if err != nil {
		return nil, err
	}
	counts, err := store.TableCounts(db)
	if err != nil {
		return nil, err
	}
	snaps, err := a.Snapshots.List(SnapshotFilter{})
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(a.Config.DatabasePath())
	if err != nil {
		return nil, err
	}

	return &Status{
		DatabasePath: a.Config.DatabasePath(),
		SizeBytes:    info.Size(),
		Tables:       counts,
		Snapshots:    len(snaps),
	}, nil
}

// Close releases the database handle and the log streams.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Log != nil {
		if err := a.Log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
