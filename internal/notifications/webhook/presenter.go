package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"meteo/internal/types"
)

const maxResponseBodyRead = 4096

// Doer sends HTTP requests. *external.BaseClient satisfies it, which gives
// delivery retries and a circuit breaker.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Presenter.
type Config struct {
	URL string
	// Platform forces a payload shape; empty means detect from URL.
	Platform Platform
	// Secret signs payloads when set.
	Secret types.SecretString
	Logger *slog.Logger
	Clock  types.Clock
}

// Presenter posts notifications to a single webhook URL.
type Presenter struct {
	client    Doer
	url       string
	formatter Formatter
	secret    types.SecretString
	logger    *slog.Logger
	clock     types.Clock
}

// NewPresenter creates a Presenter. The platform is resolved once.
func NewPresenter(client Doer, cfg Config) *Presenter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = types.RealClock{}
	}
	reg := NewRegistry()
	return &Presenter{
		client:    client,
		url:       cfg.URL,
		formatter: reg.Get(reg.Detect(cfg.URL, cfg.Platform)),
		secret:    cfg.Secret,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
}

// Name reports the detected platform, e.g. "webhook:slack".
func (p *Presenter) Name() string { return "webhook:" + string(p.formatter.Platform()) }

func (p *Presenter) Present(ctx context.Context, n types.Notification) error {
	payload, err := p.formatter.Format(&n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.secret.IsSet() {
		req.Header.Set(SignatureHeader, Sign(payload, p.secret.Unmask(), p.clock.Now()))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", p.formatter.Platform(), err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	if err := p.formatter.ValidateResponse(resp.StatusCode, body); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "notification posted",
		"notification_id", n.ID,
		"city", n.City,
		"platform", string(p.formatter.Platform()),
		"status", resp.StatusCode,
	)
	return nil
}
