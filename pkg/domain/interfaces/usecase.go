package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// PublishUseCase defines operations for running the publish pipeline
type PublishUseCase interface {
	// PublishRelease fetches the source of the release and runs the
	// pipeline matrix against it
	PublishRelease(ctx context.Context, info *model.ReleaseInfo) (*model.PublishSummary, error)

	// PublishSource runs the pipeline matrix against a local source
	// directory. When tags is empty the matrix from the pipeline
	// definition is used.
	PublishSource(ctx context.Context, srcDir string, tags []string) (*model.PublishSummary, error)
}
