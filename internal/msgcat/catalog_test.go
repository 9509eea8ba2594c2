package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsduel/internal/protocol"
)

func TestRenderRoundResult(t *testing.T) {
	c := Default()

	text, err := c.Render(KeyRoundWin, map[string]any{
		"Round":        1,
		"YourMove":     "rock",
		"OpponentMove": "scissors",
		"Score":        "1-0",
	})
	require.NoError(t, err)
	assert.Equal(t, "You win round 1 (rock vs scissors). Score 1-0", text)
}

func TestRenderMatchAndSystem(t *testing.T) {
	c := Default()

	text, err := c.Render(KeyMatchWin, map[string]any{"Score": "2-0"})
	require.NoError(t, err)
	assert.Equal(t, "You win the match (2-0)", text)

	text, err = c.Render(KeySystemJoined, map[string]any{"Player": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice has joined.", text)

	text, err = c.Render(KeySystemLeft, map[string]any{"Player": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice has left.", text)
}

func TestRenderMissingDataFails(t *testing.T) {
	c := Default()

	_, err := c.Render(KeyMatchWin, map[string]any{})
	assert.Error(t, err)
}

func TestRenderUnknownKeyFails(t *testing.T) {
	c := Default()

	_, err := c.Render("no.such.key", nil)
	assert.Error(t, err)
}

func TestEveryErrorNoteHasText(t *testing.T) {
	c := Default()

	notes := []string{
		protocol.NoteNameRequired, protocol.NoteNameInvalid, protocol.NoteNameTaken,
		protocol.NoteAlreadyRegistered, protocol.NoteNotRegistered, protocol.NoteIdentityMismatch,
		protocol.NoteOpponentNotFound, protocol.NoteInvalidOpponent, protocol.NotePlayerOffline,
		protocol.NoteAlreadyInMatch, protocol.NoteGameExists, protocol.NoteMatchNotFound,
		protocol.NoteMatchFinished, protocol.NoteUnknownAction, protocol.NoteBadJSON,
		protocol.NoteMissingField, protocol.NoteMessageTooLarge, protocol.NoteServerError,
	}
	for _, note := range notes {
		assert.True(t, c.Has(ErrorKey(note)), "missing text for %s", note)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"),
		[]byte("system:\n  joined: \"Welcome {{.Player}}!\"\n"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)

	text, err := c.Render(KeySystemJoined, map[string]any{"Player": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome bob!", text)

	// Untouched keys keep their defaults
	text, err = c.Render(KeySystemLeft, map[string]any{"Player": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob has left.", text)
}

func TestOverrideDuplicateKeysFail(t *testing.T) {
	dir := t.TempDir()
	body := []byte("match:\n  win: \"yay\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644))

	_, err := New(dir)
	assert.ErrorContains(t, err, "duplicate override key")
}

func TestOverrideRejectsNonStringValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("match:\n  win: 3\n"), 0o644))

	_, err := New(dir)
	assert.Error(t, err)
}
