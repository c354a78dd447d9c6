package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	t.Run("separates added, modified and removed", func(t *testing.T) {
		h := newHistory()
		h.record(changeAdded, "/ws/b.js")
		h.record(changeAdded, "/ws/a.js")
		h.record(changeModified, "/ws/c.js")
		h.record(changeRemoved, "/ws/d.js")

		assert.Equal(t, []string{"/ws/c.js"}, h.GetChangedFiles())
		assert.Equal(t, []string{"/ws/a.js", "/ws/b.js", "/ws/c.js"}, h.GetAllChangedFiles())
		assert.Equal(t, []string{"/ws/d.js"}, h.GetRemovedFiles())
		assert.False(t, h.empty())
	})

	t.Run("added file written again stays added", func(t *testing.T) {
		h := newHistory()
		h.record(changeAdded, "/ws/a.js")
		h.record(changeModified, "/ws/a.js")

		assert.Empty(t, h.GetChangedFiles())
		assert.Equal(t, []string{"/ws/a.js"}, h.GetAllChangedFiles())
	})

	t.Run("keeps path in both changed and removed", func(t *testing.T) {
		h := newHistory()
		h.record(changeModified, "/ws/a.js")
		h.record(changeRemoved, "/ws/a.js")

		assert.Equal(t, []string{"/ws/a.js"}, h.GetAllChangedFiles())
		assert.Equal(t, []string{"/ws/a.js"}, h.GetRemovedFiles())
	})

	t.Run("re-created file moves back to added", func(t *testing.T) {
		h := newHistory()
		h.record(changeRemoved, "/ws/a.js")
		h.record(changeAdded, "/ws/a.js")

		assert.Empty(t, h.GetRemovedFiles())
		assert.Equal(t, []string{"/ws/a.js"}, h.GetAllChangedFiles())
	})

	t.Run("clear forgets everything", func(t *testing.T) {
		h := newHistory()
		h.record(changeAdded, "/ws/a.js")
		h.record(changeRemoved, "/ws/b.js")

		h.ClearHistory()

		assert.True(t, h.empty())
		assert.Empty(t, h.GetAllChangedFiles())
		assert.Empty(t, h.GetRemovedFiles())
	})

	t.Run("clear until checkpoint keeps later changes", func(t *testing.T) {
		h := newHistory()
		h.record(changeAdded, "/ws/a.js")
		h.record(changeModified, "/ws/b.js")
		h.record(changeRemoved, "/ws/c.js")
		checkpoint := h.Checkpoint()

		h.record(changeModified, "/ws/b.js")
		h.record(changeModified, "/ws/d.js")
		h.ClearHistoryUntil(checkpoint)

		assert.Equal(t, []string{"/ws/b.js", "/ws/d.js"}, h.GetAllChangedFiles())
		assert.Empty(t, h.GetRemovedFiles())
	})

	t.Run("writing an added file after a checkpoint keeps it", func(t *testing.T) {
		h := newHistory()
		h.record(changeAdded, "/ws/a.js")
		checkpoint := h.Checkpoint()
		h.record(changeModified, "/ws/a.js")

		h.ClearHistoryUntil(checkpoint)

		assert.Equal(t, []string{"/ws/a.js"}, h.GetAllChangedFiles())
		assert.Empty(t, h.GetChangedFiles())
	})
}

func TestInHiddenDir(t *testing.T) {
	tests := []struct {
		rel      string
		expected bool
	}{
		{"file.js", false},
		{".dcignore", false},
		{"src/app.js", false},
		{"src/.eslintrc", false},
		{".git/HEAD", true},
		{"src/.cache/x.js", true},
		{"a/b/c.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.expected, inHiddenDir(tt.rel))
		})
	}
}
