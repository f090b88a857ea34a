package file

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sparkify/starlake"
)

func mustFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("making dirs: %v", err)
	}
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
}

func TestRawSourceNested(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "song_data/A/B/C/TRABCEI128F424C983.json", `{"song_id": "S1"}`)
	mustFile(t, d, "song_data/A/A/B/TRAAABD128F429CF47.json", `{"song_id": "S2"}`)
	mustFile(t, d, "song_data/A/A/B/notes.txt", `not a record`)

	rs, err := NewRawSource(d)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}

	gotNames := []string{}
	var reader starlake.NamedReadCloser
	for reader, err = rs.NextReader(); err == nil; reader, err = rs.NextReader() {
		gotNames = append(gotNames, filepath.Base(reader.Name()))
		if _, err := ioutil.ReadAll(reader); err != nil {
			t.Fatalf("reading file: %v", err)
		}
		reader.Close()
	}
	if err != io.EOF {
		t.Fatalf("unexpected NextReader error: %v", err)
	}

	sort.Strings(gotNames)
	want := []string{"TRAAABD128F429CF47.json", "TRABCEI128F424C983.json"}
	if len(gotNames) != len(want) || gotNames[0] != want[0] || gotNames[1] != want[1] {
		t.Fatalf("different file names: %v", gotNames)
	}
}

func TestRawSourceSingleFile(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "events.json", `{"page": "NextSong"}`)

	rs, err := NewRawSource(filepath.Join(d, "events.json"))
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	reader, err := rs.NextReader()
	if err != nil {
		t.Fatalf("getting reader: %v", err)
	}
	buf, err := ioutil.ReadAll(reader)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	reader.Close()
	if string(buf) != `{"page": "NextSong"}` {
		t.Fatalf("unexpected contents: %s", buf)
	}
	if _, err := rs.NextReader(); err != io.EOF {
		t.Fatalf("expected EOF, got: %v", err)
	}
}
