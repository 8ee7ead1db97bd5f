package agent

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	buf := bytes.Buffer{}

	require.NoError(t, WriteRecord(&buf, []byte(`{"type":"SHUTDOWN"}`)))
	require.NoError(t, WriteRecord(&buf, []byte{}))
	require.NoError(t, WriteRecord(&buf, []byte("second")))

	reader := NewRecordReader(&buf)

	record, err := reader.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"SHUTDOWN"}`, string(record))

	record, err = reader.ReadRecord()
	require.NoError(t, err)
	assert.Empty(t, record)

	record, err = reader.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, "second", string(record))

	_, err = reader.ReadRecord()
	assert.Equal(t, io.EOF, err)
}

func TestRecordTruncatedPayload(t *testing.T) {
	reader := NewRecordReader(strings.NewReader("10\nshort"))

	_, err := reader.ReadRecord()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestRecordTruncatedHeader(t *testing.T) {
	reader := NewRecordReader(strings.NewReader("12"))

	_, err := reader.ReadRecord()
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestRecordInvalidLength(t *testing.T) {
	reader := NewRecordReader(strings.NewReader("nan\npayload"))

	_, err := reader.ReadRecord()
	assert.Error(t, err)
}
