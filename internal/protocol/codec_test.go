package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsduel/internal/model"
)

func TestReaderSplitsLines(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n\n  \r\n{\"b\":2}\r\n{\"c\":3}"), 0)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(line))

	// Final line without a terminator is still delivered
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"c":3}`, string(line))

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderReturnedLineSurvivesNextRead(t *testing.T) {
	r := NewReader(strings.NewReader("first\nsecond\n"), 0)

	first, err := r.ReadLine()
	require.NoError(t, err)
	_, err = r.ReadLine()
	require.NoError(t, err)

	assert.Equal(t, "first", string(first))
}

func TestReaderRejectsOversizedLine(t *testing.T) {
	long := strings.Repeat("x", 100)
	r := NewReader(strings.NewReader(long+"\n"), 32)

	_, err := r.ReadLine()
	assert.ErrorIs(t, err, model.ErrMessageTooLarge)
}

func TestWriterAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteMessage(SystemMessage{Type: TypeSystem, Message: "hi"}))
	require.NoError(t, w.WriteMessage(ChallengeMessage{Type: TypeChallenge, From: "alice"}))

	assert.Equal(t,
		"{\"type\":\"system\",\"message\":\"hi\"}\n{\"type\":\"challenge\",\"from\":\"alice\"}\n",
		buf.String())
}

func TestWriterEscapesEmbeddedNewlines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteMessage(SystemMessage{Type: TypeSystem, Message: "line one\nline two"}))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))

	var decoded SystemMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSuffix(out, "\n")), &decoded))
	assert.Equal(t, "line one\nline two", decoded.Message)
}

func TestWriteFrameRejectsRawLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.WriteFrame([]byte("{\"a\":\n1}"))
	assert.ErrorIs(t, err, model.ErrMalformedMessage)
	assert.Zero(t, buf.Len())
}

func TestOnlineListEncodesEmptyPlayersAsArray(t *testing.T) {
	data, err := Marshal(OnlineListMessage{Type: TypeOnlineList, Players: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"online_list","players":[]}`, string(data))
}
