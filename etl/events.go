package etl

import (
	"encoding/json"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sparkify/starlake"
	sljson "github.com/sparkify/starlake/json"
	"github.com/sparkify/starlake/parquet"
)

// loadEvents reads every event record under src, keeping only songplay
// actions. Malformed lines and records that don't unmarshal are counted
// and skipped.
func loadEvents(src starlake.RawSource, workers int) (plays []EventRecord, skipped int, err error) {
	var mu sync.Mutex
	err = starlake.Walk(src, workers, func(r starlake.NamedReadCloser) error {
		defer r.Close()
		js := sljson.NewSource(r)
		for {
			raw, err := js.Record()
			if err == io.EOF {
				return nil
			}
			if sljson.IsBadRecord(err) {
				mu.Lock()
				skipped++
				mu.Unlock()
				continue
			}
			if err != nil {
				return errors.Wrapf(err, "reading %s", r.Name())
			}
			var rec EventRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				continue
			}
			if rec.Page != PageNextSong {
				continue
			}
			mu.Lock()
			plays = append(plays, rec)
			mu.Unlock()
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return plays, skipped, nil
}

// ProcessEvents reads the raw activity logs from events, filters them
// to songplays, and writes the user and time dimensions and the
// songplays fact table under outDir. The song catalog is re-read from
// catalog to resolve foreign keys, so this stage does not depend on
// ProcessCatalog's output. Songplay ids are sequential within the run;
// the whole table is overwritten every run, so they are never reused
// but also not stable across runs.
func ProcessEvents(events, catalog starlake.RawSource, sink parquet.FS, outDir string, workers int) error {
	plays, skipped, err := loadEvents(events, workers)
	if err != nil {
		return errors.Wrap(err, "loading events")
	}
	if skipped > 0 {
		log.Printf("events: skipped %d malformed records", skipped)
	}

	users := make(map[string]UserRow)
	times := make(map[int64]TimeRow)
	for _, ev := range plays {
		users[ev.UserID] = UserFrom(ev)
		times[ev.TS] = TimeFrom(ev.TS)
	}

	userIDs := make([]string, 0, len(users))
	for id := range users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	userRows := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		userRows[i] = users[id]
	}

	stamps := make([]int64, 0, len(times))
	for ts := range times {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	timeRows := make([]interface{}, len(stamps))
	for i, ts := range stamps {
		timeRows[i] = times[ts]
	}

	catRecs, catSkipped, err := loadCatalog(catalog, workers)
	if err != nil {
		return errors.Wrap(err, "loading catalog for join")
	}
	if catSkipped > 0 {
		log.Printf("events: skipped %d malformed catalog records", catSkipped)
	}
	index := NewSongIndex(catRecs)

	// ordered fact rows keep reruns deterministic apart from the ids.
	sort.Slice(plays, func(i, j int) bool {
		a, b := plays[i], plays[j]
		if a.TS != b.TS {
			return a.TS < b.TS
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.ItemInSession < b.ItemInSession
	})

	nexter := starlake.NewNexter()
	matched := 0
	factRows := make([]interface{}, len(plays))
	for i, ev := range plays {
		songID, artistID := index.Lookup(ev.Song, ev.Artist, ev.Length)
		if songID != nil {
			matched++
		}
		t := EventTime(ev.TS)
		factRows[i] = SongplayRow{
			SongplayID: int64(nexter.Next()),
			StartTime:  ev.TS,
			UserID:     ev.UserID,
			Level:      ev.Level,
			SongID:     songID,
			ArtistID:   artistID,
			SessionID:  ev.SessionID,
			Location:   ev.Location,
			UserAgent:  ev.UserAgent,
			Year:       int32(t.Year()),
			Month:      int32(t.Month()),
		}
	}

	log.Printf("events: %d songplays (%d matched to catalog), %d users, %d timestamps",
		len(factRows), matched, len(userRows), len(timeRows))

	err = parquet.Write(sink, sink.Join(outDir, "users", parquet.PartFile), new(UserRow), userRows)
	if err != nil {
		return errors.Wrap(err, "writing users")
	}
	err = parquet.Write(sink, sink.Join(outDir, "time", parquet.PartFile), new(TimeRow), timeRows)
	if err != nil {
		return errors.Wrap(err, "writing time")
	}
	err = parquet.WritePartitioned(sink, sink.Join(outDir, "songplays"), new(SongplayRow), factRows, func(row interface{}) string {
		return row.(SongplayRow).Partition()
	})
	return errors.Wrap(err, "writing songplays")
}
