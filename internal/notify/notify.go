package notify

import (
	"context"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// Summary is a rendered status message: a title plus one line per entity.
type Summary struct {
	Title string
	Lines []string
}

// Sink publishes a summary to the external chat platform, reusing the handle
// when it still points at a live message and returning the handle to persist.
// An empty-ID handle means "create the message".
type Sink interface {
	Publish(ctx context.Context, handle domain.NotificationHandle, s Summary) (domain.NotificationHandle, error)
}
