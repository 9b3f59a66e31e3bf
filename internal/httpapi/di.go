package httpapi

import (
	"net/http"

	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (http.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		h := NewHandler(
			do.MustInvoke[*ingest.Service](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[objectstore.Store](i),
			HandlerOptions{
				BasePath:       cfg.BasePath(),
				IntervalGap:    cfg.IntervalGap(),
				MaxUploadBytes: cfg.MaxUploadBytes,
			},
		)
		return NewRouter(h), nil
	})
}
