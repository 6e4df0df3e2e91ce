package service

import (
	"context"

	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/pkg/events"

	"github.com/google/uuid"
)

// IEventSubscriber is the slice of the NATS subscriber this service needs.
type IEventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, durableName string, handler func(ctx context.Context, event events.Event) error) error
}

// CacheSyncService evicts cached file trees when another gateway instance
// has written a newer one to the store.
type CacheSyncService struct {
	subscriber IEventSubscriber
	fileTrees  IFileTreeService
	instanceID string
	logger     logger.ILogger
}

func NewCacheSyncService(subscriber IEventSubscriber, fileTrees IFileTreeService, instanceID string, log logger.ILogger) *CacheSyncService {
	return &CacheSyncService{
		subscriber: subscriber,
		fileTrees:  fileTrees,
		instanceID: instanceID,
		logger:     log,
	}
}

func (s *CacheSyncService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, events.ProjectFileTreeUpdated, "filetree-cache-"+s.instanceID, s.Handle)
}

// Handle evicts the cached tree named by a PROJECT_FILE_TREE_UPDATED event.
func (s *CacheSyncService) Handle(_ context.Context, event events.Event) error {
	data := event.Payload()
	origin, _ := data["origin"].(string)
	if origin == s.instanceID {
		return nil
	}

	rawID, _ := data["project_id"].(string)
	projectID, err := uuid.Parse(rawID)
	if err != nil {
		s.logger.Warn("CacheSync", "Event without valid project id ignored", map[string]interface{}{"project_id": rawID})
		return nil
	}

	s.fileTrees.Invalidate(projectID)
	s.logger.Debug("CacheSync", "Evicted file tree", map[string]interface{}{"project_id": projectID, "origin": origin})
	return nil
}
