package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeRelease WebhookEventType = "release"
	EventTypePing    WebhookEventType = "ping"
	EventTypeUnknown WebhookEventType = "unknown"
)

// releaseCreationActions are the release event actions that trigger a
// publish pipeline. GitHub delivers "created" when a release object is
// created and "published" when a draft goes public; a repository setup
// usually produces one or the other.
var releaseCreationActions = map[string]struct{}{
	"created":   {},
	"published": {},
}

// IsCreationAction reports whether the release action represents a newly
// available release
func IsCreationAction(action string) bool {
	_, ok := releaseCreationActions[action]
	return ok
}

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (e.g., created, published)
	Repository string           // Repository name
	Sender     string           // Sender username
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event triggers a publish pipeline
func (e *WebhookEvent) IsSupportedEvent() bool {
	switch e.Type {
	case EventTypeRelease:
		return IsCreationAction(e.Action)
	default:
		return false
	}
}
