package app

import (
	"context"

	"go.uber.org/fx"

	storage "github.com/callscope/callscope/pkg/bulk/adapter/storage"
	gcs "github.com/callscope/callscope/pkg/bulk/adapter/storage/gcs"
	local "github.com/callscope/callscope/pkg/bulk/adapter/storage/local"
	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	config "github.com/callscope/callscope/pkg/bulk/core/config"
	coordinator "github.com/callscope/callscope/pkg/bulk/engine/coordinator"
	remote "github.com/callscope/callscope/pkg/bulk/infrastructure/remote"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
	recording "github.com/callscope/callscope/pkg/recording"
	export "github.com/callscope/callscope/pkg/recording/export"
	gormstore "github.com/callscope/callscope/pkg/recording/gormstore"
	inmemory "github.com/callscope/callscope/pkg/recording/inmemory"
)

// recordingsConnection is the database connection name the repository uses.
const recordingsConnection = "recordings"

// NewRepository selects the recording store: the configured "recordings"
// database connection when present, an in-memory store otherwise.
func NewRepository(lc fx.Lifecycle, cfg *config.Config) (recording.Repository, error) {
	dbCfg, ok := cfg.Callscope.Database[recordingsConnection]
	if !ok || dbCfg.Driver == "" {
		logger.Infof("App: no '%s' database configured, using in-memory store.", recordingsConnection)
		return inmemory.NewStore(), nil
	}

	store, err := gormstore.Open(dbCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return store.Close() },
	})
	return store, nil
}

// NewStorage resolves the export storage backend named by export.storage_ref.
func NewStorage(lc fx.Lifecycle, cfg *config.Config) (storage.Store, error) {
	ref := cfg.Callscope.Export.StorageRef
	storageCfg, ok := cfg.Callscope.Storage[ref]
	if !ok {
		return nil, exception.NewBulkErrorf("app", "storage connection '%s' is not configured", ref)
	}

	var (
		store storage.Store
		err   error
	)
	switch storageCfg.Type {
	case local.ProviderType, "":
		store, err = local.New(storageCfg)
	case gcs.ProviderType:
		store, err = gcs.New(context.Background(), storageCfg)
	default:
		return nil, exception.NewBulkErrorf("app", "unsupported storage type '%s' for connection '%s'", storageCfg.Type, ref)
	}
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return store.Close() },
	})
	return store, nil
}

// NewInvoker provides the analysis invoker: HTTP against the configured
// endpoint, or the built-in simulator when none is set.
func NewInvoker(cfg *config.Config) (port.Invoker, error) {
	if cfg.Callscope.Remote.Endpoint == "" {
		logger.Warnf("App: no remote endpoint configured, using the simulated analysis service.")
		return newSimulatedInvoker(), nil
	}
	return remote.NewHTTPInvoker(cfg.Callscope.Remote)
}

// NewCatalog builds the operation catalog over the recording repository.
func NewCatalog(repo recording.Repository, invoker port.Invoker, cfg *config.Config) (*recording.Catalog, error) {
	return recording.NewCatalog(repo, invoker, cfg.Callscope.Bulk)
}

// NewExportService builds the export pipeline over the configured storage.
func NewExportService(repo recording.Repository, store storage.Store, cfg *config.Config) (*export.Service, error) {
	return export.NewService(repo, store, cfg.Callscope.Export)
}

// CoordinatorParams collects the listener groups contributed by the
// listener modules.
type CoordinatorParams struct {
	fx.In
	Catalog           *recording.Catalog
	ProgressListeners []port.ProgressListener `group:"progress_listeners"`
	RunListeners      []port.RunListener      `group:"run_listeners"`
}

// NewCoordinator wires the run coordinator with every registered listener.
func NewCoordinator(params CoordinatorParams) *coordinator.Coordinator {
	coord := coordinator.New(params.Catalog, params.Catalog)
	for _, l := range params.ProgressListeners {
		coord.AddProgressListener(l)
	}
	for _, l := range params.RunListeners {
		coord.AddRunListener(l)
	}
	return coord
}

// Module assembles the application-level providers.
var Module = fx.Options(
	fx.Provide(
		NewRepository,
		NewStorage,
		NewInvoker,
		NewCatalog,
		NewExportService,
		NewCoordinator,
	),
)
