package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

type webhookUseCase struct{}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook() *webhookUseCase {
	return &webhookUseCase{}
}

// ProcessEvent records a received webhook event. Pipeline launching happens
// in the event processor after the HTTP response is sent; this use case only
// classifies and logs the delivery.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Received webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
	)

	switch event.Type {
	case model.EventTypePing:
		logger.Info("Webhook ping acknowledged", "repository", event.Repository)
	case model.EventTypeRelease:
		if !model.IsCreationAction(event.Action) {
			// Edited and deleted releases are routine traffic, not anomalies.
			logger.Debug("Ignoring non-creation release action",
				"action", event.Action,
				"repository", event.Repository,
			)
		}
	default:
		logger.Warn("Unsupported event type received",
			"type", event.Type,
			"action", event.Action,
		)
	}

	return nil
}
