package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/repository/memory"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/internal/repository/unitofwork"
	"ai-collab-be/pkg/events"
	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
)

// Sources recorded on PROJECT_FILE_TREE_UPDATED events.
const (
	FileTreeSourceEdit      = "edit"
	FileTreeSourceGenerated = "ai"
	FileTreeSourceReplace   = "replace"
)

// IFileTreeService keeps the live file tree of a project in step with the
// project store. Concurrent edits are not reconciled: the last write of a
// path wins, and the store holds whatever was written last.
type IFileTreeService interface {
	Get(ctx context.Context, projectID uuid.UUID) (filetree.Tree, error)
	UpsertFile(ctx context.Context, projectID uuid.UUID, path, contents string) (filetree.Tree, error)
	ApplyGenerated(ctx context.Context, projectID uuid.UUID, incoming filetree.Tree) (filetree.Tree, error)
	Replace(ctx context.Context, projectID uuid.UUID, tree filetree.Tree) (filetree.Tree, error)
	Invalidate(projectID uuid.UUID)
}

type fileTreeService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.FileTreeCache
	events     IEventPublisher
	logger     logger.ILogger
	instanceID string

	locks projectLocks
}

// projectLocks hands out one mutex per project. An entry lives only while
// someone holds or waits for it.
type projectLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]*projectLock
}

type projectLock struct {
	sync.Mutex
	refs int
}

func (l *projectLocks) lock(projectID uuid.UUID) func() {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[uuid.UUID]*projectLock)
	}
	pl, ok := l.held[projectID]
	if !ok {
		pl = &projectLock{}
		l.held[projectID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.Lock()
	return func() {
		pl.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.held, projectID)
		}
		l.mu.Unlock()
	}
}

func (l *projectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

func NewFileTreeService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.FileTreeCache,
	events IEventPublisher,
	log logger.ILogger,
	instanceID string,
) IFileTreeService {
	return &fileTreeService{
		uowFactory: uowFactory,
		cache:      cache,
		events:     events,
		logger:     log,
		instanceID: instanceID,
	}
}

// Get returns the live tree. The read-through load runs under the project
// lock, so a slow reader cannot put an older tree back over a newer write.
func (s *fileTreeService) Get(ctx context.Context, projectID uuid.UUID) (filetree.Tree, error) {
	if tree, ok := s.cache.Get(projectID); ok {
		return tree, nil
	}

	unlock := s.locks.lock(projectID)
	defer unlock()
	return s.current(ctx, projectID)
}

// current must be called with the project lock held.
func (s *fileTreeService) current(ctx context.Context, projectID uuid.UUID) (filetree.Tree, error) {
	if tree, ok := s.cache.Get(projectID); ok {
		return tree, nil
	}
	return s.load(ctx, projectID)
}

// load reads through to the store and fills the cache.
func (s *fileTreeService) load(ctx context.Context, projectID uuid.UUID) (filetree.Tree, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectID})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, apperror.ErrNotFound)
	}

	tree := project.FileTree
	if tree == nil {
		tree = filetree.Tree{}
	}
	s.cache.Save(projectID, tree)
	return tree, nil
}

func (s *fileTreeService) UpsertFile(ctx context.Context, projectID uuid.UUID, path, contents string) (filetree.Tree, error) {
	if _, err := filetree.SplitPath(path); err != nil {
		return nil, apperror.Wrap(apperror.ErrBadRequest, err)
	}
	return s.update(ctx, projectID, FileTreeSourceEdit, func(current filetree.Tree) (filetree.Tree, error) {
		return current.WithFile(path, contents)
	})
}

func (s *fileTreeService) ApplyGenerated(ctx context.Context, projectID uuid.UUID, incoming filetree.Tree) (filetree.Tree, error) {
	return s.update(ctx, projectID, FileTreeSourceGenerated, func(current filetree.Tree) (filetree.Tree, error) {
		return current.Merge(incoming), nil
	})
}

func (s *fileTreeService) Replace(ctx context.Context, projectID uuid.UUID, tree filetree.Tree) (filetree.Tree, error) {
	return s.update(ctx, projectID, FileTreeSourceReplace, func(filetree.Tree) (filetree.Tree, error) {
		return tree.Clone(), nil
	})
}

// Invalidate drops the cached tree. It waits for an in-flight write on the
// same project so the eviction lands after it.
func (s *fileTreeService) Invalidate(projectID uuid.UUID) {
	unlock := s.locks.lock(projectID)
	defer unlock()
	s.cache.Delete(projectID)
}

// update applies mutate to the live tree and writes the whole result to the
// store in one statement. The live tree keeps the new state even when the
// write fails; the caller gets ErrPersistenceFailure and the stored copy
// lags until the next successful write.
func (s *fileTreeService) update(
	ctx context.Context,
	projectID uuid.UUID,
	source string,
	mutate func(current filetree.Tree) (filetree.Tree, error),
) (filetree.Tree, error) {
	unlock := s.locks.lock(projectID)
	defer unlock()

	current, err := s.current(ctx, projectID)
	if err != nil {
		return nil, err
	}

	next, err := mutate(current)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrBadRequest, err)
	}
	s.cache.Save(projectID, next)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ProjectRepository().UpdateFileTree(ctx, projectID, next); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.cache.Delete(projectID)
			return nil, fmt.Errorf("project %s: %w", projectID, err)
		}
		s.logger.Error("FileTree", "Failed to persist file tree", map[string]interface{}{
			"project_id": projectID,
			"source":     source,
			"error":      err,
		})
		return next, apperror.Wrap(apperror.ErrPersistenceFailure, err)
	}

	s.logger.Info("FileTree", "File tree persisted", map[string]interface{}{
		"project_id": projectID,
		"source":     source,
		"files":      len(next.Paths()),
	})
	s.announce(ctx, projectID, source)
	return next, nil
}

func (s *fileTreeService) announce(ctx context.Context, projectID uuid.UUID, source string) {
	if s.events == nil {
		return
	}
	evt := events.New(events.ProjectFileTreeUpdated, map[string]interface{}{
		"project_id": projectID.String(),
		"origin":     s.instanceID,
		"source":     source,
	})
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("FileTree", "Failed to publish file tree event", map[string]interface{}{
			"project_id": projectID,
			"error":      err.Error(),
		})
	}
}
