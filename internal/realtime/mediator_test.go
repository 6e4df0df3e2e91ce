package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/pkg/ai"
	"ai-collab-be/pkg/events"
	"ai-collab-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
	opts    llm.Options
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	for _, opt := range options {
		opt(&g.opts)
	}
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

func (g *fakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

type recordingJobs struct {
	mu   sync.Mutex
	jobs []dto.PublishGeneratedFileTreeMessage
}

func (r *recordingJobs) PublishGeneratedFileTree(_ context.Context, payload dto.PublishGeneratedFileTreeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, payload)
	return nil
}

type recordingEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingEvents) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.EventType())
	return nil
}

func TestAIMediator_PassesGenerationOptions(t *testing.T) {
	hub := newTestHub()
	gen := &fakeGenerator{reply: `{"text":"hi"}`}
	m := NewAIMediator(gen, hub, &recordingJobs{}, nil, time.Second, logger.NewNopLogger(),
		llm.WithTemperature(0.1))

	require.NoError(t, m.Mediate(context.Background(), uuid.New(), "hello"))

	assert.InDelta(t, 0.1, gen.opts.Temperature, 1e-9)
	assert.True(t, gen.opts.JSONOutput)
}

func TestAIMediator_BroadcastsReplyToWholeRoom(t *testing.T) {
	hub := newTestHub()
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	outsider := joinedClient(hub, uuid.New(), "eve")
	drain(alice)

	gen := &fakeGenerator{reply: "```json\n{\"text\":\"done\",\"fileTree\":{\"app.js\":{\"file\":{\"contents\":\"x\"}}}}\n```"}
	jobs := &recordingJobs{}
	m := NewAIMediator(gen, hub, jobs, nil, time.Second, logger.NewNopLogger())

	require.NoError(t, m.Mediate(context.Background(), room, " build an app"))

	assert.Equal(t, []string{" build an app"}, gen.Prompts())
	assert.True(t, gen.opts.JSONOutput)
	assert.NotEmpty(t, gen.opts.SystemPrompt)

	for _, c := range []*Client{alice, bob} {
		got := decodeFrames(t, drain(c))
		require.Len(t, got, 1)
		assert.Equal(t, dto.EventProjectMessage, got[0].Type)
		assert.Equal(t, "ai", got[0].Sender.Id)
		assert.Equal(t, "AI", got[0].Sender.Email)

		reply := ai.ParseReply(got[0].Message)
		assert.Equal(t, "done", reply.Text)
		assert.True(t, reply.HasFileTree())
	}
	assert.Empty(t, drain(outsider))

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, room, jobs.jobs[0].ProjectId)
	assert.Equal(t, []string{"app.js"}, jobs.jobs[0].FileTree.Paths())
}

func TestAIMediator_ProseReplyBecomesText(t *testing.T) {
	hub := newTestHub()
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")

	jobs := &recordingJobs{}
	m := NewAIMediator(&fakeGenerator{reply: "Hello there"}, hub, jobs, nil, time.Second, logger.NewNopLogger())
	require.NoError(t, m.Mediate(context.Background(), room, "hi"))

	got := decodeFrames(t, drain(alice))
	require.Len(t, got, 1)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(got[0].Message), &body))
	assert.Equal(t, map[string]interface{}{"text": "Hello there"}, body)
	assert.Empty(t, jobs.jobs)
}

func TestAIMediator_FailureBroadcastsNothing(t *testing.T) {
	hub := newTestHub()
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")

	t.Run("engine error", func(t *testing.T) {
		evts := &recordingEvents{}
		cause := errors.New("model overloaded")
		m := NewAIMediator(&fakeGenerator{err: cause}, hub, nil, evts, time.Second, logger.NewNopLogger())

		err := m.Mediate(context.Background(), room, "hi")
		assert.ErrorIs(t, err, apperror.ErrGenerationFailure)
		assert.ErrorIs(t, err, cause)
		assert.Empty(t, drain(alice))
		assert.Equal(t, []string{events.AIGenerationFailed}, evts.types)
	})

	t.Run("encoding error", func(t *testing.T) {
		cause := errors.New("unencodable reply")
		orig := encodeAssistantFrame
		encodeAssistantFrame = func(ai.Reply) ([]byte, error) { return nil, cause }
		defer func() { encodeAssistantFrame = orig }()

		evts := &recordingEvents{}
		m := NewAIMediator(&fakeGenerator{reply: `{"text":"hi"}`}, hub, nil, evts, time.Second, logger.NewNopLogger())

		err := m.Mediate(context.Background(), room, "hi")
		assert.ErrorIs(t, err, apperror.ErrGenerationFailure)
		assert.ErrorIs(t, err, cause)
		assert.Empty(t, drain(alice))
		assert.Equal(t, []string{events.AIGenerationFailed}, evts.types)
	})

	t.Run("timeout", func(t *testing.T) {
		gen := &fakeGenerator{block: true}
		m := NewAIMediator(gen, hub, nil, nil, 20*time.Millisecond, logger.NewNopLogger())

		err := m.Mediate(context.Background(), room, "hi")
		assert.ErrorIs(t, err, apperror.ErrGenerationFailure)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Len(t, gen.Prompts(), 1, "no retry")
		assert.Empty(t, drain(alice))
	})
}
