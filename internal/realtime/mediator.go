package realtime

import (
	"context"
	"encoding/json"
	"time"

	"ai-collab-be/internal/constant"
	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/service"
	"ai-collab-be/pkg/ai"
	"ai-collab-be/pkg/events"
	"ai-collab-be/pkg/llm"

	"github.com/google/uuid"
)

// AssistantSender is attached to every frame produced by the assistant.
var AssistantSender = dto.UserDescriptor{Id: "ai", Email: "AI"}

// Generator is the slice of an LLM backend the mediator needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error)
}

type Mediator interface {
	Mediate(ctx context.Context, roomID uuid.UUID, prompt string) error
}

// AIMediator turns a prompt into an assistant reply for the whole room.
type AIMediator struct {
	generator Generator
	hub       *Hub
	jobs      service.IPublisherService
	events    service.IEventPublisher
	timeout   time.Duration
	options   []llm.Option
	logger    logger.ILogger
}

func NewAIMediator(
	generator Generator,
	hub *Hub,
	jobs service.IPublisherService,
	events service.IEventPublisher,
	timeout time.Duration,
	log logger.ILogger,
	options ...llm.Option,
) *AIMediator {
	return &AIMediator{
		generator: generator,
		hub:       hub,
		jobs:      jobs,
		events:    events,
		timeout:   timeout,
		options:   options,
		logger:    log,
	}
}

// Mediate asks the engine once and broadcasts the reply to every member of
// the room, the requester included. On failure nothing is broadcast.
func (m *AIMediator) Mediate(ctx context.Context, roomID uuid.UUID, prompt string) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	opts := append([]llm.Option{
		llm.WithSystemPrompt(constant.ProjectAssistantSystemPrompt),
		llm.WithJSONOutput(),
	}, m.options...)
	raw, err := m.generator.Generate(ctx, prompt, opts...)
	if err != nil {
		m.fail(roomID, err)
		return apperror.Wrap(apperror.ErrGenerationFailure, err)
	}

	reply := ai.ParseReply(raw)
	payload, err := encodeAssistantFrame(reply)
	if err != nil {
		m.fail(roomID, err)
		return apperror.Wrap(apperror.ErrGenerationFailure, err)
	}

	delivered := m.hub.BroadcastAll(roomID, payload)
	m.logger.Info("Mediator", "Assistant reply broadcast", map[string]interface{}{
		"room_id":    roomID,
		"recipients": delivered,
		"file_tree":  reply.HasFileTree(),
		"duration":   time.Since(start).String(),
	})

	if reply.HasFileTree() && m.jobs != nil {
		err := m.jobs.PublishGeneratedFileTree(context.Background(), dto.PublishGeneratedFileTreeMessage{
			ProjectId: roomID,
			FileTree:  reply.FileTree,
		})
		if err != nil {
			m.logger.Error("Mediator", "Failed to queue generated file tree", map[string]interface{}{
				"room_id": roomID,
				"error":   err,
			})
		}
	}
	return nil
}

// encodeAssistantFrame is a variable so tests can make encoding fail.
var encodeAssistantFrame = func(reply ai.Reply) ([]byte, error) {
	message, err := reply.Encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(dto.ProjectMessageFrame{
		Type:    dto.EventProjectMessage,
		Message: message,
		Sender:  AssistantSender,
	})
}

func (m *AIMediator) fail(roomID uuid.UUID, cause error) {
	m.logger.Error("Mediator", "Assistant generation failed", map[string]interface{}{
		"room_id": roomID,
		"error":   cause,
	})
	if m.events == nil {
		return
	}
	evt := events.New(events.AIGenerationFailed, map[string]interface{}{
		"project_id": roomID.String(),
		"error":      cause.Error(),
	})
	if err := m.events.Publish(context.Background(), evt); err != nil {
		m.logger.Warn("Mediator", "Failed to publish generation failure", map[string]interface{}{"error": err.Error()})
	}
}
