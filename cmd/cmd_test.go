package cmd

import (
	"io/ioutil"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	rc := NewRootCommand(strings.NewReader(""), ioutil.Discard, ioutil.Discard)
	if rc.Use != "starlake" {
		t.Fatalf("wrong root command name: %s", rc.Use)
	}
	for _, name := range []string{"etl", "catalog", "events"} {
		sub, _, err := rc.Find([]string{name})
		if err != nil {
			t.Fatalf("finding %s: %v", name, err)
		}
		if sub.Use != name {
			t.Fatalf("expected %s subcommand, found %s", name, sub.Use)
		}
	}
}

func TestETLCommandDefaults(t *testing.T) {
	NewETLCommand(strings.NewReader(""), ioutil.Discard, ioutil.Discard)
	if ETLMain == nil {
		t.Fatal("ETLMain not set")
	}
	if ETLMain.Workers < 1 {
		t.Fatalf("bad default worker count: %d", ETLMain.Workers)
	}
	if ETLMain.Output == "" {
		t.Fatal("no default output location")
	}
}
