package agent

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// The event stream is framed as length-prefixed records:
// a decimal payload length in ASCII, a newline, then the payload.

const maxRecordSize = 16 * 1024 * 1024

type RecordReader struct {
	reader *bufio.Reader
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{
		reader: bufio.NewReader(r),
	}
}

// Read the next record payload. Returns io.EOF at a clean end of
// stream and io.ErrUnexpectedEOF if the stream ends mid record.
func (r *RecordReader) ReadRecord() ([]byte, error) {
	header, err := r.reader.ReadString('\n')
	if err == io.EOF && header != "" {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	size, err := strconv.Atoi(header[:len(header)-1])
	if err != nil || size < 0 {
		return nil, fmt.Errorf("invalid record length %q", header[:len(header)-1])
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("record too large: %d", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.reader, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return payload, nil
}

func WriteRecord(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(payload)); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
