package etl_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sparkify/starlake/etl"
	"github.com/sparkify/starlake/parquet"
	"github.com/sparkify/starlake/test"
)

const catalogFixture = `{"num_songs": 1, "artist_id": "AR1", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "Artist X", "song_id": "SOA", "title": "Song A", "duration": 210.0, "year": 1982}
{"num_songs": 1, "artist_id": "AR1", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "Artist X", "song_id": "SOA", "title": "Song A", "duration": 210.0, "year": 1982}
{"num_songs": 1, "artist_id": "AR2", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Artist Y", "song_id": "SOB", "title": "Song B", "duration": 180.5, "year": 0}
`

const eventFixture = `{"artist": "Artist X", "auth": "Logged In", "firstName": "Ryan", "gender": "M", "itemInSession": 0, "lastName": "Smith", "length": 210.0, "level": "paid", "location": "San Jose-Sunnyvale-Santa Clara, CA", "method": "PUT", "page": "NextSong", "registration": 1541016707796.0, "sessionId": 583, "song": "Song A", "status": 200, "ts": 1542241826796, "userAgent": "Mozilla/5.0", "userId": "26"}
{"artist": "Artist X", "auth": "Logged In", "firstName": "Ryan", "gender": "M", "itemInSession": 1, "lastName": "Smith", "length": 211.0, "level": "paid", "location": "San Jose-Sunnyvale-Santa Clara, CA", "method": "PUT", "page": "NextSong", "registration": 1541016707796.0, "sessionId": 583, "song": "Song A", "status": 200, "ts": 1542242000000, "userAgent": "Mozilla/5.0", "userId": "26"}
{"artist": null, "auth": "Logged In", "firstName": "Sylvie", "gender": "F", "itemInSession": 0, "lastName": "Cruz", "length": null, "level": "free", "location": "Washington-Arlington, DC", "method": "GET", "page": "Home", "registration": 1540266185796.0, "sessionId": 438, "song": null, "status": 200, "ts": 1542242500000, "userAgent": "Mozilla/5.0", "userId": "10"}
{"artist": "Unknown Band", "auth": "Logged In", "firstName": "Aiden", "gender": "M", "itemInSession": 2, "lastName": "Ramirez", "length": 95.0, "level": "free", "location": "New York-Newark, NY", "method": "PUT", "page": "NextSong", "registration": 1540283578796.0, "sessionId": 187, "song": "Obscure Tune", "status": 200, "ts": 1542243000000, "userAgent": "Mozilla/5.0", "userId": "80"}
{"artist": "Broken
`

func writeFixture(t *testing.T, dir, name, contents string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("making fixture dirs: %v", err)
	}
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func runPipeline(t *testing.T, out string) (in string) {
	t.Helper()
	in = t.TempDir()
	writeFixture(t, in, "song_data/A/A/A/TRAAAAW128F429D538.json", catalogFixture)
	writeFixture(t, in, "log_data/2018/11/2018-11-15-events.json", eventFixture)

	m := etl.NewMain()
	m.CatalogData = filepath.Join(in, "song_data")
	m.EventData = filepath.Join(in, "log_data")
	m.Output = out
	m.Workers = 2
	test.ErrNil(t, m.Run(), "running pipeline")
	return in
}

func readPartitioned(t *testing.T, dir string, read func(path string)) {
	t.Helper()
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			read(path)
		}
		return nil
	})
	test.ErrNil(t, err, "walking "+dir)
}

func TestPipeline(t *testing.T) {
	out := t.TempDir()
	runPipeline(t, out)
	fs := parquet.LocalFS{}

	// songs: deduplicated, partitioned by (year, artist_id).
	var songs []etl.SongRow
	readPartitioned(t, filepath.Join(out, "songs"), func(path string) {
		var part []etl.SongRow
		test.ErrNil(t, parquet.Read(fs, path, new(etl.SongRow), &part), "reading songs")
		songs = append(songs, part...)
	})
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs after dedup, got %d: %v", len(songs), songs)
	}
	for _, dir := range []string{"year=1982/artist_id=AR1", "year=0/artist_id=AR2"} {
		if _, err := os.Stat(filepath.Join(out, "songs", filepath.FromSlash(dir), parquet.PartFile)); err != nil {
			t.Fatalf("missing songs partition %s: %v", dir, err)
		}
	}

	// artists: deduplicated, single file, geohash only when located.
	var artists []etl.ArtistRow
	test.ErrNil(t, parquet.Read(fs, filepath.Join(out, "artists", parquet.PartFile), new(etl.ArtistRow), &artists), "reading artists")
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(artists))
	}
	byID := map[string]etl.ArtistRow{}
	for _, a := range artists {
		byID[a.ArtistID] = a
	}
	if byID["AR1"].Geohash == nil || byID["AR2"].Geohash != nil {
		t.Fatalf("wrong geohash columns: %+v", artists)
	}

	// users: only NextSong actors, deduplicated.
	var users []etl.UserRow
	test.ErrNil(t, parquet.Read(fs, filepath.Join(out, "users", parquet.PartFile), new(etl.UserRow), &users), "reading users")
	gotUsers := map[string]string{}
	for _, u := range users {
		gotUsers[u.UserID] = u.FirstName
	}
	test.MustBe(t, gotUsers, map[string]string{"26": "Ryan", "80": "Aiden"}, "users")

	// time: one row per distinct songplay timestamp.
	var times []etl.TimeRow
	test.ErrNil(t, parquet.Read(fs, filepath.Join(out, "time", parquet.PartFile), new(etl.TimeRow), &times), "reading time")
	if len(times) != 3 {
		t.Fatalf("expected 3 time rows, got %d", len(times))
	}
	for _, row := range times {
		test.MustBe(t, row, etl.TimeFrom(row.StartTime), "time decomposition")
	}

	// songplays: every NextSong event and nothing else, fks resolved
	// by exact (title, artist, duration) match.
	var facts []etl.SongplayRow
	readPartitioned(t, filepath.Join(out, "songplays"), func(path string) {
		var part []etl.SongplayRow
		test.ErrNil(t, parquet.Read(fs, path, new(etl.SongplayRow), &part), "reading songplays")
		facts = append(facts, part...)
	})
	if len(facts) != 3 {
		t.Fatalf("expected 3 songplays, got %d: %v", len(facts), facts)
	}

	ids := map[int64]struct{}{}
	for _, f := range facts {
		ids[f.SongplayID] = struct{}{}
		if f.Year != 2018 || f.Month != 11 {
			t.Fatalf("wrong partition columns on fact row: %+v", f)
		}
		switch f.StartTime {
		case 1542241826796: // exact catalog match
			if f.SongID == nil || f.ArtistID == nil || *f.SongID != "SOA" || *f.ArtistID != "AR1" {
				t.Fatalf("expected resolved fks, got %+v", f)
			}
		default: // duration mismatch or unknown song: row kept, fks null
			if f.SongID != nil || f.ArtistID != nil {
				t.Fatalf("expected null fks, got %+v", f)
			}
		}
	}
	if len(ids) != len(facts) {
		t.Fatalf("songplay ids not unique: %v", ids)
	}
}

func TestPipelineRerunIdempotent(t *testing.T) {
	out1 := t.TempDir()
	in := runPipeline(t, out1)

	out2 := t.TempDir()
	m := etl.NewMain()
	m.CatalogData = filepath.Join(in, "song_data")
	m.EventData = filepath.Join(in, "log_data")
	m.Output = out2
	m.Workers = 2
	test.ErrNil(t, m.Run(), "rerunning pipeline")

	fs := parquet.LocalFS{}
	for _, table := range []string{"artists", "users", "time"} {
		a, err := ioutil.ReadFile(filepath.Join(out1, table, parquet.PartFile))
		test.ErrNil(t, err, "reading first run "+table)
		b, err := ioutil.ReadFile(filepath.Join(out2, table, parquet.PartFile))
		test.ErrNil(t, err, "reading second run "+table)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s table differs between reruns", table)
		}
	}

	// songplays may differ in generated ids but not in content.
	read := func(out string) []etl.SongplayRow {
		var facts []etl.SongplayRow
		readPartitioned(t, filepath.Join(out, "songplays"), func(path string) {
			var part []etl.SongplayRow
			test.ErrNil(t, parquet.Read(fs, path, new(etl.SongplayRow), &part), "reading songplays")
			facts = append(facts, part...)
		})
		for i := range facts {
			facts[i].SongplayID = 0
		}
		return facts
	}
	if !reflect.DeepEqual(read(out1), read(out2)) {
		t.Fatal("songplay content differs between reruns")
	}
}
