// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService applies file trees carried by AI replies to the project
// they were generated for.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	fileTrees  IFileTreeService
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	fileTrees IFileTreeService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		fileTrees:  fileTrees,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishGeneratedFileTreeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal generated file tree", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	_, err := cs.fileTrees.ApplyGenerated(ctx, payload.ProjectId, payload.FileTree)
	switch {
	case err == nil:
		cs.logger.Info("Consumer", "Generated file tree applied", map[string]interface{}{"project_id": payload.ProjectId})
	case errors.Is(err, apperror.ErrNotFound):
		// rooms may outlive their project record
		cs.logger.Warn("Consumer", "Generated file tree for unknown project dropped", map[string]interface{}{"project_id": payload.ProjectId})
	case errors.Is(err, apperror.ErrPersistenceFailure):
		// live tree already holds the update, retrying would only repeat the write
		cs.logger.Error("Consumer", "Generated file tree not persisted", map[string]interface{}{"project_id": payload.ProjectId, "error": err})
	default:
		cs.logger.Error("Consumer", "Failed to apply generated file tree", map[string]interface{}{"project_id": payload.ProjectId, "error": err})
	}
	msg.Ack()
}
