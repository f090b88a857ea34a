package json_test

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	sljson "github.com/sparkify/starlake/json"
)

func TestSource(t *testing.T) {
	src := sljson.NewSource(strings.NewReader(`
{"hey": 44}

{"hey": 39}
`))

	vals := make(map[int]struct{})
	var rec json.RawMessage
	var err error
	for rec, err = src.Record(); err == nil; rec, err = src.Record() {
		var m map[string]float64
		if err := json.Unmarshal(rec, &m); err != nil {
			t.Fatalf("unmarshaling record: %v", err)
		}
		vals[int(m["hey"])] = struct{}{}
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("wrong num of vals: %v", vals)
	}
	for _, v := range []int{44, 39} {
		if _, ok := vals[v]; !ok {
			t.Fatalf("didn't find %d in %v", v, vals)
		}
	}
}

func TestSourceBadRecord(t *testing.T) {
	src := sljson.NewSource(strings.NewReader(`{"ok": 1}
{"broken":
{"ok": 2}
`))

	rec, err := src.Record()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if string(rec) != `{"ok": 1}` {
		t.Fatalf("unexpected first record: %s", rec)
	}

	_, err = src.Record()
	if !sljson.IsBadRecord(err) {
		t.Fatalf("expected bad record error, got: %v", err)
	}

	// the line after the bad one is still readable.
	rec, err = src.Record()
	if err != nil {
		t.Fatalf("record after bad line: %v", err)
	}
	if string(rec) != `{"ok": 2}` {
		t.Fatalf("unexpected record after bad line: %s", rec)
	}

	if _, err = src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got: %v", err)
	}
}
