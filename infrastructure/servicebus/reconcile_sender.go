package servicebus

import (
	"context"
	"encoding/json"
	"errors"

	"blog-social/domain/model"
	"blog-social/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

var errNoClient = errors.New("service bus client not configured")

// ReconcileSender puts reconcile events on a Service Bus queue.
type ReconcileSender struct {
	client *azservicebus.Client
	queue  string
}

func NewReconcileSender(client *azservicebus.Client, queue string) *ReconcileSender {
	return &ReconcileSender{client: client, queue: queue}
}

func (s *ReconcileSender) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close(ctx)
}

func reconcileMessage(event model.ReconcileEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := event.Type
	msg := &azservicebus.Message{
		Body:                  body,
		ContentType:           &contentType,
		Subject:               &subject,
		ApplicationProperties: map[string]any{"platform": string(event.Platform), "post_id": event.PostID},
	}
	if event.ID != "" {
		id := event.ID
		msg.MessageID = &id
	}
	return msg, nil
}

func (s *ReconcileSender) PublishReconcile(ctx context.Context, event model.ReconcileEvent) error {
	if s.client == nil {
		return errNoClient
	}
	msg, err := reconcileMessage(event)
	if err != nil {
		return err
	}
	sender, err := s.client.NewSender(s.queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		}
	}(sender, context.Background())

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
