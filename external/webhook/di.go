package webhook

import (
	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Notifier, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPNotifier(c.UploadWebhookURL), nil
	})
}
