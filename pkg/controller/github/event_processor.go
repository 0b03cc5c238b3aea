package github

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// EventProcessor processes GitHub webhook events
type EventProcessor struct {
	publishUC interfaces.PublishUseCase
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(publishUC interfaces.PublishUseCase) *EventProcessor {
	return &EventProcessor{
		publishUC: publishUC,
	}
}

// ProcessEvent processes a GitHub webhook event
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventType string, payload interface{}) error {
	logger := ctxlog.From(ctx)

	switch eventType {
	case "release":
		return p.processReleaseEvent(ctx, payload)
	default:
		logger.Info("Ignoring unsupported event type", "event_type", eventType)
		return nil
	}
}

// processReleaseEvent runs the publish pipeline for a newly created release
func (p *EventProcessor) processReleaseEvent(ctx context.Context, payload interface{}) error {
	logger := ctxlog.From(ctx)

	releaseEvent, ok := payload.(*github.ReleaseEvent)
	if !ok {
		logger.Warn("Invalid release event payload")
		return nil
	}

	if !model.IsCreationAction(releaseEvent.GetAction()) {
		logger.Info("Ignoring release event with non-creation action",
			"action", releaseEvent.GetAction(),
		)
		return nil
	}

	releaseInfo, err := p.extractReleaseInfo(releaseEvent)
	if err != nil {
		logger.Error("Failed to extract release info", "error", err)
		return err
	}

	logger.Info("Processing release event",
		"owner", releaseInfo.Owner,
		"repo", releaseInfo.Repo,
		"tag", releaseInfo.TagName,
		"commit_sha", releaseInfo.CommitSHA,
	)

	summary, err := p.publishUC.PublishRelease(ctx, releaseInfo)
	if err != nil {
		logger.Error("Failed to publish release", "error", err,
			"owner", releaseInfo.Owner,
			"repo", releaseInfo.Repo,
		)
		sentry.CaptureException(err)
		return err
	}

	if !summary.Succeeded() {
		err := fmt.Errorf("publish of %s finished with %d failed runs", releaseInfo.Slug(), len(summary.FailedRuns()))
		logger.Error("Publish finished with failures",
			"release", releaseInfo.Slug(),
			"failed", len(summary.FailedRuns()),
			"total", len(summary.Runs),
		)
		sentry.CaptureException(err)
		return err
	}

	logger.Info("Successfully published release",
		"release", releaseInfo.Slug(),
		"runs", len(summary.Runs),
		"duration", summary.Duration(),
	)

	return nil
}

// extractReleaseInfo extracts release information from a GitHub release event
func (p *EventProcessor) extractReleaseInfo(event *github.ReleaseEvent) (*model.ReleaseInfo, error) {
	if event.GetRepo() == nil {
		return nil, fmt.Errorf("missing repository information in release event")
	}

	if event.GetRelease() == nil {
		return nil, fmt.Errorf("missing release information in release event")
	}

	// Use Get*() helper methods for concise and nil-safe field access
	owner := event.GetRepo().GetOwner().GetLogin()
	repo := event.GetRepo().GetName()
	tagName := event.GetRelease().GetTagName()
	releaseName := event.GetRelease().GetName()
	commitSHA := event.GetRelease().GetTargetCommitish()

	if owner == "" || repo == "" {
		return nil, fmt.Errorf("missing required fields: owner=%s, repo=%s", owner, repo)
	}
	if tagName == "" && commitSHA == "" {
		return nil, fmt.Errorf("release event carries neither tag name nor target commitish")
	}

	return &model.ReleaseInfo{
		Owner:       owner,
		Repo:        repo,
		CommitSHA:   commitSHA,
		TagName:     tagName,
		ReleaseName: releaseName,
	}, nil
}
