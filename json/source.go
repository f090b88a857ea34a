package json

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ErrBadRecord marks a line which could not be decoded as a JSON
// object. Callers that want lenient parsing check for it with
// IsBadRecord and skip the record; any other error means the underlying
// reader is broken.
var ErrBadRecord = errors.New("bad record")

// Source reads newline-delimited JSON objects from a reader.
type Source struct {
	scan *bufio.Scanner
	line int
}

// NewSource gets a new json source which will decode one record per
// line from the given reader.
func NewSource(r io.Reader) *Source {
	scan := bufio.NewScanner(r)
	// catalog records are small, but event logs can carry long
	// user-agent strings; 16MB leaves plenty of headroom.
	scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Source{scan: scan}
}

// Record returns the next JSON object on the stream as a raw message.
// Blank lines are skipped. A malformed line yields an error wrapping
// ErrBadRecord and the source stays usable for the lines after it.
func (s *Source) Record() (json.RawMessage, error) {
	for s.scan.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scan.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, errors.Wrapf(ErrBadRecord, "line %d", s.line)
		}
		rec := make(json.RawMessage, len(line))
		copy(rec, line)
		return rec, nil
	}
	if err := s.scan.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning records")
	}
	return nil, io.EOF
}

// IsBadRecord reports whether err came from a malformed record rather
// than from the underlying reader.
func IsBadRecord(err error) bool {
	return errors.Cause(err) == ErrBadRecord
}
