// Package webhook forwards newly captured leads to configured
// integrations (currently the n8n webhook variant).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bomcorte/blackfriday/internal/model"
)

const requestTimeout = 10 * time.Second

// IntegrationSource supplies the configured integrations.
type IntegrationSource interface {
	GetIntegrations(ctx context.Context) ([]model.Integration, error)
}

// Notifier posts lead payloads to active webhook integrations.
// Delivery is best effort: failures are logged, never retried, and
// never affect the lead that triggered them.
type Notifier struct {
	source     IntegrationSource
	httpClient *http.Client
}

// NewNotifier creates a notifier. Returns error if source is nil.
func NewNotifier(source IntegrationSource) (*Notifier, error) {
	if source == nil {
		return nil, errors.New("integration source is required")
	}
	return &Notifier{
		source:     source,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// NotifyLead sends the submission to every active n8n integration.
func (n *Notifier) NotifyLead(ctx context.Context, sub model.LeadSubmission) {
	integrations, err := n.source.GetIntegrations(ctx)
	if err != nil {
		slog.Error("webhook: failed to load integrations", "error", err)
		return
	}

	for _, integration := range integrations {
		if !integration.Active {
			continue
		}
		creds, ok := integration.N8N()
		if !ok || creds.WebhookURL == "" {
			continue
		}
		if err := n.post(ctx, creds, sub); err != nil {
			slog.Error("webhook: delivery failed",
				"integration", integration.Name,
				"error", err,
			)
		}
	}
}

func (n *Notifier) post(ctx context.Context, creds model.N8NCredentials, sub model.LeadSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if creds.AuthHeader != "" {
		req.Header.Set("Authorization", creds.AuthHeader)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
