package usecase

import (
	"context"

	"blog-social/infrastructure/logger"
)

const defaultScheduleBatch = 20

// ScheduledPublisher is the periodic job that dispatches publications whose
// scheduled time has passed.
type ScheduledPublisher struct {
	social ISocialUsecase
	batch  int
}

func NewScheduledPublisher(social ISocialUsecase, batch int) *ScheduledPublisher {
	if batch <= 0 {
		batch = defaultScheduleBatch
	}
	return &ScheduledPublisher{social: social, batch: batch}
}

func (p *ScheduledPublisher) Run(ctx context.Context) error {
	n, err := p.social.PublishDue(ctx, p.batch)
	if n > 0 {
		logger.GetLogger().WithField("dispatched", n).Info("Scheduled publications dispatched")
	}
	return err
}
