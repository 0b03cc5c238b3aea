// Package notify sends publish results to Slack via incoming webhook.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

type slackNotifier struct {
	webhookURL string
}

// NewSlack creates a Notifier posting to the given incoming webhook
// URL. An empty URL returns nil, letting callers treat notification as
// disabled.
func NewSlack(webhookURL string) interfaces.Notifier {
	if webhookURL == "" {
		return nil
	}
	return &slackNotifier{webhookURL: webhookURL}
}

// NotifyPublish posts the outcome of a publish matrix
func (n *slackNotifier) NotifyPublish(ctx context.Context, summary *model.PublishSummary) error {
	msg := NewMessage(summary)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification")
	}
	return nil
}

// NewMessage builds the webhook message for a publish summary
func NewMessage(summary *model.PublishSummary) *slack.WebhookMessage {
	failed := summary.FailedRuns()

	var text string
	if len(failed) == 0 {
		text = fmt.Sprintf(":package: Published *%s* (%d runs)", summary.Project, len(summary.Runs))
	} else {
		text = fmt.Sprintf(":rotating_light: Publish of *%s* failed (%d/%d runs failed)",
			summary.Project, len(failed), len(summary.Runs))
	}
	if summary.Release != nil {
		text += fmt.Sprintf("\nRelease: `%s`", summary.Release.Slug())
	}

	attachments := make([]slack.Attachment, 0, len(summary.Runs))
	for _, run := range summary.Runs {
		attachments = append(attachments, runAttachment(run))
	}

	return &slack.WebhookMessage{
		Text:        text,
		Attachments: attachments,
	}
}

func runAttachment(run *model.PipelineRun) slack.Attachment {
	color := "good"
	if run.Failed() {
		color = "danger"
	}

	fields := []slack.AttachmentField{
		{Title: "Tag", Value: run.Tag, Short: true},
		{Title: "Status", Value: string(run.Status), Short: true},
		{Title: "Duration", Value: run.Duration().Truncate(time.Millisecond).String(), Short: true},
		{Title: "Artifacts", Value: fmt.Sprintf("%d", len(run.Artifacts)), Short: true},
	}
	if run.Error != "" {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: run.Error})
	}

	return slack.Attachment{
		Color:  color,
		Title:  fmt.Sprintf("%s / %s", run.Project, run.Tag),
		Footer: fmt.Sprintf("run %s", shortID(run.ID)),
		Fields: fields,
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
