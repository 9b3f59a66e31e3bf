package ingest

import (
	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/foxseedlab/replaylog/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[objectstore.Store](i)
		keys := do.MustInvoke[objectstore.Keys](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Notifier](i)
		return NewService(
			NewPipeline(keys, cfg.IngestGap()),
			NewCoordinator(store, repo, cfg.CommitTimeout(), cfg.UploadConcurrency),
			wh,
			cfg.BasePath(),
		), nil
	})
}
