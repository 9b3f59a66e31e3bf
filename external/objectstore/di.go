package objectstore

import (
	"context"
	"time"

	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/objectstore"
	"github.com/samber/do/v2"
)

const storeInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (objectstore.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
		defer cancel()
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	})
	do.Provide(injector, func(i do.Injector) (objectstore.Keys, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return objectstore.Keys{Prefix: cfg.S3KeyPrefix}, nil
	})
}
