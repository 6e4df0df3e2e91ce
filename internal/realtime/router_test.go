package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMediator struct {
	mu      sync.Mutex
	prompts []string
}

func (m *recordingMediator) Mediate(_ context.Context, _ uuid.UUID, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return nil
}

func (m *recordingMediator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func newTestRouter(hub *Hub) *Router {
	return NewRouter(hub, "@ai", false, logger.NewNopLogger())
}

func TestRouter_FanOutUsesSessionIdentity(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	spoofed := []byte(`{"type":"project-message","message":"hi","sender":{"id":"bob","email":"bob@example.com"}}`)
	router.Route(alice, spoofed)

	got := decodeFrames(t, drain(bob))
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Message)
	assert.Equal(t, "alice", got[0].Sender.Id)
	assert.Equal(t, "alice@example.com", got[0].Sender.Email)
	assert.Empty(t, drain(alice), "no echo to the sender")
}

func TestRouter_PreservesOrderPerSession(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	for _, msg := range []string{"one", "two", "three"} {
		router.Route(alice, messageFrame(t, msg))
	}

	var got []string
	for _, f := range decodeFrames(t, drain(bob)) {
		got = append(got, f.Message)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestRouter_MentionIsForwardedAndQueued(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	router.Route(alice, messageFrame(t, "hello @ai summarize"))
	router.Route(alice, messageFrame(t, "no mention here"))
	router.Route(alice, messageFrame(t, "@AI is not the marker"))

	got := decodeFrames(t, drain(bob))
	require.Len(t, got, 3)
	assert.Equal(t, "hello @ai summarize", got[0].Message)

	mediator := &recordingMediator{}
	alice.closePrompts()
	alice.RunPrompts(mediator, logger.NewNopLogger())
	assert.Equal(t, []string{"hello  summarize"}, mediator.Prompts())
}

func TestRouter_FullPromptQueueTellsSender(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()

	alice := NewClient(hub, nil, &Session{ID: uuid.New(), RoomID: room}, 16, 1)
	hub.Join(alice)

	router.Route(alice, messageFrame(t, "@ai first"))
	assert.Empty(t, drain(alice))

	router.Route(alice, messageFrame(t, "@ai second"))
	got := decodeFrames(t, drain(alice))
	require.Len(t, got, 1)
	assert.Equal(t, dto.EventError, got[0].Type)
	assert.Equal(t, apperror.CodeGenerationFailure, got[0].Error.Code)
}

func TestRouter_RejectsBadFrames(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	tests := []struct {
		name string
		data string
		code string
	}{
		{"not json", `hello`, apperror.CodeBadFrame},
		{"message not a string", `{"type":"project-message","message":{"text":"x"}}`, apperror.CodeBadFrame},
		{"unknown type", `{"type":"typing"}`, apperror.CodeUnsupportedEvent},
		{"missing type", `{"message":"hi"}`, apperror.CodeUnsupportedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router.Route(alice, []byte(tt.data))

			got := decodeFrames(t, drain(alice))
			require.Len(t, got, 1)
			assert.Equal(t, dto.EventError, got[0].Type)
			assert.Equal(t, tt.code, got[0].Error.Code)
			assert.Empty(t, drain(bob))
		})
	}
}

func TestRouter_PreserveClientFields(t *testing.T) {
	hub := newTestHub()
	router := NewRouter(hub, "", true, logger.NewNopLogger())
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	router.Route(alice, []byte(`{"type":"project-message","message":"hi","clientTs":12,"sender":{"id":"mallory"}}`))

	raw := drain(bob)
	require.Len(t, raw, 1)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw[0], &got))
	assert.Equal(t, float64(12), got["clientTs"])
	assert.Equal(t, "hi", got["message"])
	assert.Equal(t, map[string]interface{}{"id": "alice", "email": "alice@example.com"}, got["sender"])
}

func TestServePipeline_AlwaysBroadcastsHumanMessageBeforeAssistant(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	gen := &fakeGenerator{reply: `{"text":"summary"}`}
	mediator := NewAIMediator(gen, hub, nil, nil, time.Second, logger.NewNopLogger())
	go alice.RunPrompts(mediator, logger.NewNopLogger())

	router.Route(alice, messageFrame(t, "hello @ai summarize"))

	var raw [][]byte
	require.Eventually(t, func() bool {
		raw = append(raw, drain(bob)...)
		return len(raw) == 2
	}, 2*time.Second, 10*time.Millisecond)

	bobFrames := decodeFrames(t, raw)
	assert.Equal(t, "alice", bobFrames[0].Sender.Id)
	assert.Equal(t, "ai", bobFrames[1].Sender.Id)

	hub.Leave(alice)
	alice.closePrompts()
}

// heldGenerator answers only after release is closed.
type heldGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *heldGenerator) Generate(ctx context.Context, _ string, _ ...llm.Option) (string, error) {
	close(g.started)
	select {
	case <-g.release:
		return `{"text":"late answer"}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestServePipeline_ReplyReachesRoomAfterRequesterLeaves(t *testing.T) {
	hub := newTestHub()
	router := newTestRouter(hub)
	room := uuid.New()
	alice := joinedClient(hub, room, "alice")
	bob := joinedClient(hub, room, "bob")
	drain(alice)

	gen := &heldGenerator{started: make(chan struct{}), release: make(chan struct{})}
	mediator := NewAIMediator(gen, hub, nil, nil, time.Second, logger.NewNopLogger())
	done := make(chan struct{})
	go func() {
		alice.RunPrompts(mediator, logger.NewNopLogger())
		close(done)
	}()

	router.Route(alice, messageFrame(t, "@ai build it"))
	<-gen.started

	// same teardown readPump runs when the socket drops
	hub.Leave(alice)
	alice.closePrompts()
	close(gen.release)

	var raw [][]byte
	require.Eventually(t, func() bool {
		raw = append(raw, drain(bob)...)
		return len(raw) == 2
	}, 2*time.Second, 10*time.Millisecond)

	got := decodeFrames(t, raw)
	assert.Equal(t, "alice", got[0].Sender.Id)
	assert.Equal(t, "ai", got[1].Sender.Id)
	assert.Contains(t, got[1].Message, "late answer")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt worker did not stop after the requester left")
	}
	assert.Equal(t, []*Client{bob}, hubClients(hub, room))
}
