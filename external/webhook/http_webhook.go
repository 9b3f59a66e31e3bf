package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/foxseedlab/replaylog/internal/webhook"
	"github.com/goccy/go-json"
)

const defaultTimeout = 10 * time.Second

type HTTPNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPNotifier(webhookURL string) webhook.Notifier {
	return &HTTPNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

func (n *HTTPNotifier) NotifyUpload(ctx context.Context, payload webhook.UploadPayload) error {
	if n.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
