package usecase

import (
	"context"

	"blog-social/domain/model"
	"blog-social/domain/repository"
	"blog-social/infrastructure/logger"
)

// EventFanout forwards events to every configured transport. Transport errors
// are logged and never returned.
type EventFanout []repository.IEventPublisher

func (f EventFanout) PublishReconcile(ctx context.Context, event model.ReconcileEvent) error {
	for _, p := range f {
		if err := p.PublishReconcile(ctx, event); err != nil {
			logger.GetLogger().WithField("post_id", event.PostID).WithField("platform", event.Platform).
				WithField("error", err).Error("Error publishing reconcile event")
		}
	}
	return nil
}
