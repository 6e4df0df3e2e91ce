package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/model"
	"ai-collab-be/internal/repository/contract"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/internal/repository/unitofwork"
	"ai-collab-be/pkg/events"
	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Project{}, &model.ProjectMember{}))
	return db
}

func seedProject(t *testing.T, factory unitofwork.RepositoryFactory, owner string, tree filetree.Tree) *entity.Project {
	t.Helper()
	ctx := context.Background()

	p := &entity.Project{Id: uuid.New(), Name: "demo", OwnerId: owner, FileTree: tree, CreatedAt: time.Now()}
	repo := factory.NewUnitOfWork(ctx).ProjectRepository()
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.AddMembers(ctx, p.Id, []string{owner}))
	return p
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// failingFactory wraps a real factory and makes every file-tree write fail.
type failingFactory struct {
	inner unitofwork.RepositoryFactory
}

func (f failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx)}
}

type failingUnitOfWork struct {
	unitofwork.UnitOfWork
}

func (u failingUnitOfWork) ProjectRepository() contract.ProjectRepository {
	return failingRepository{ProjectRepository: u.UnitOfWork.ProjectRepository()}
}

var errStoreDown = errors.New("store unavailable")

type failingRepository struct {
	contract.ProjectRepository
}

func (failingRepository) UpdateFileTree(context.Context, uuid.UUID, filetree.Tree) error {
	return errStoreDown
}

// gatedFactory pauses the first FindOne after it has read the store, until
// release is closed.
type gatedFactory struct {
	inner   unitofwork.RepositoryFactory
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newGatedFactory(inner unitofwork.RepositoryFactory) *gatedFactory {
	f := &gatedFactory{inner: inner, reached: make(chan struct{}), release: make(chan struct{})}
	f.armed.Store(true)
	return f
}

func (f *gatedFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return gatedUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx), gate: f}
}

type gatedUnitOfWork struct {
	unitofwork.UnitOfWork
	gate *gatedFactory
}

func (u gatedUnitOfWork) ProjectRepository() contract.ProjectRepository {
	return gatedRepository{ProjectRepository: u.UnitOfWork.ProjectRepository(), gate: u.gate}
}

type gatedRepository struct {
	contract.ProjectRepository
	gate *gatedFactory
}

func (r gatedRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error) {
	p, err := r.ProjectRepository.FindOne(ctx, specs...)
	if r.gate.armed.CompareAndSwap(true, false) {
		close(r.gate.reached)
		<-r.gate.release
	}
	return p, err
}
