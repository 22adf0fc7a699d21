package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// NewPubSub creates a Pub/Sub client; an empty project id means the feature is off.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}
