package service

import (
	"context"
	"encoding/json"

	"ai-collab-be/internal/dto"
	"ai-collab-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IEventPublisher sends domain events to other services and instances.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IPublisherService queues in-process jobs for background consumers.
type IPublisherService interface {
	PublishGeneratedFileTree(ctx context.Context, payload dto.PublishGeneratedFileTreeMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) PublishGeneratedFileTree(_ context.Context, payload dto.PublishGeneratedFileTreeMessage) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return ps.publisher.Publish(ps.topicName, msg)
}
