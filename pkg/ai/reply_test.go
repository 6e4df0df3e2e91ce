package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-collab-be/pkg/filetree"
)

func TestParseReply(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		r := ParseReply(`{"text":"done","fileTree":{"app.js":{"file":{"contents":"x"}}}}`)
		assert.Equal(t, "done", r.Text)
		require.True(t, r.HasFileTree())
		assert.Equal(t, "x", r.FileTree["app.js"].File.Contents)
	})

	t.Run("fenced json", func(t *testing.T) {
		r := ParseReply("```json\n{\"text\":\"hi\"}\n```")
		assert.Equal(t, "hi", r.Text)
		assert.False(t, r.HasFileTree())
	})

	t.Run("prose", func(t *testing.T) {
		r := ParseReply("Sure, here is a summary.")
		assert.Equal(t, "Sure, here is a summary.", r.Text)
		assert.Nil(t, r.FileTree)
	})

	t.Run("json without known fields is prose", func(t *testing.T) {
		r := ParseReply(`{"answer":"42"}`)
		assert.Equal(t, `{"answer":"42"}`, r.Text)
	})
}

func TestReply_Encode(t *testing.T) {
	encoded, err := Reply{Text: "hi"}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, encoded)

	encoded, err = Reply{Text: "t", FileTree: filetree.Tree{"a": filetree.NewFile("b")}}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"t","fileTree":{"a":{"file":{"contents":"b"}}}}`, encoded)
}
