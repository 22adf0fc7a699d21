package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"blog-social/domain/model"
	"blog-social/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

var errNoClient = errors.New("pubsub client not configured")

// ReconcilePublisher sends reconcile events to a Pub/Sub topic, creating the topic on first use.
type ReconcilePublisher struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewReconcilePublisher(client *pubsub.Client, topicID string) *ReconcilePublisher {
	return &ReconcilePublisher{client: client, topicID: topicID}
}

func (p *ReconcilePublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicID); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *ReconcilePublisher) PublishReconcile(ctx context.Context, event model.ReconcileEvent) error {
	if p.client == nil {
		return errNoClient
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     event.Type,
			"platform": string(event.Platform),
			"post_id":  event.PostID,
		},
	}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("post_id", event.PostID).Info("Reconcile event published")
	return nil
}

// Stop flushes pending messages.
func (p *ReconcilePublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
		p.topic = nil
	}
}

// Close flushes pending messages and releases the client.
func (p *ReconcilePublisher) Close(_ context.Context) error {
	p.Stop()
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
