package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// OpsNotifier posts plain-text messages to the operations chat webhook.
// Delivery is best-effort: failures are logged and swallowed so an outage of
// the chat tool never blocks a termination.
type OpsNotifier struct {
	url    string
	hc     *http.Client
	logger *slog.Logger
}

func NewOpsNotifier(webhookURL string, logger *slog.Logger) *OpsNotifier {
	return &OpsNotifier{
		url:    webhookURL,
		hc:     &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

func (o *OpsNotifier) Send(ctx context.Context, text string) {
	if o.url == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		o.logger.Warn("ops webhook request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.hc.Do(req)
	if err != nil {
		o.logger.Warn("ops webhook delivery failed", "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		o.logger.Warn("ops webhook rejected message", "status", resp.StatusCode)
	}
}
