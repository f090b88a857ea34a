package file

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sparkify/starlake"
)

// RawSource is a starlake.RawSource which reads files from disk. Given
// a directory it walks the whole tree and serves every *.json file, so
// nested partition layouts (song_data/A/B/C/x.json,
// log_data/2018/11/x.json) need no special handling.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource gets a RawSource serving the given file, or all json
// files under the given directory.
func NewRawSource(pathname string) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		s.files = []string{pathname}
		return s, nil
	}
	err = filepath.Walk(pathname, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		s.files = append(s.files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking directory")
	}
	return s, nil
}

type namedFile struct {
	*os.File
}

func (f *namedFile) Name() string {
	return f.File.Name()
}

// NextReader implements starlake.RawSource.
func (s *RawSource) NextReader() (starlake.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	f, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}
	return &namedFile{f}, nil
}
