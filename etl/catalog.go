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

// loadCatalog reads every catalog record under src. Malformed lines and
// records that don't unmarshal are counted and skipped; any other error
// aborts the load.
func loadCatalog(src starlake.RawSource, workers int) (recs []CatalogRecord, skipped int, err error) {
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
			var rec CatalogRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				continue
			}
			mu.Lock()
			recs = append(recs, rec)
			mu.Unlock()
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return recs, skipped, nil
}

// ProcessCatalog reads the raw song catalog from src, projects and
// deduplicates it into the song and artist dimensions, and writes both
// under outDir: songs partitioned by (year, artist_id), artists as a
// single file. Rows are sorted by key so reruns on unchanged input
// produce identical files.
func ProcessCatalog(src starlake.RawSource, sink parquet.FS, outDir string, workers int) error {
	recs, skipped, err := loadCatalog(src, workers)
	if err != nil {
		return errors.Wrap(err, "loading catalog")
	}
	if skipped > 0 {
		log.Printf("catalog: skipped %d malformed records", skipped)
	}

	songs := make(map[string]SongRow, len(recs))
	artists := make(map[string]ArtistRow)
	for _, rec := range recs {
		songs[rec.SongID] = SongFrom(rec)
		artists[rec.ArtistID] = ArtistFrom(rec)
	}

	songIDs := make([]string, 0, len(songs))
	for id := range songs {
		songIDs = append(songIDs, id)
	}
	sort.Strings(songIDs)
	songRows := make([]interface{}, len(songIDs))
	for i, id := range songIDs {
		songRows[i] = songs[id]
	}

	artistIDs := make([]string, 0, len(artists))
	for id := range artists {
		artistIDs = append(artistIDs, id)
	}
	sort.Strings(artistIDs)
	artistRows := make([]interface{}, len(artistIDs))
	for i, id := range artistIDs {
		artistRows[i] = artists[id]
	}

	log.Printf("catalog: %d records -> %d songs, %d artists", len(recs), len(songRows), len(artistRows))

	err = parquet.WritePartitioned(sink, sink.Join(outDir, "songs"), new(SongRow), songRows, func(row interface{}) string {
		return row.(SongRow).Partition()
	})
	if err != nil {
		return errors.Wrap(err, "writing songs")
	}
	err = parquet.Write(sink, sink.Join(outDir, "artists", parquet.PartFile), new(ArtistRow), artistRows)
	return errors.Wrap(err, "writing artists")
}
