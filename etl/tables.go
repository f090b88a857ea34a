package etl

import (
	"fmt"
	"time"

	"github.com/mmcloughlin/geohash"
)

// geohashChars is the precision of the artist geohash column; 6
// characters is roughly neighborhood-sized.
const geohashChars = 6

// SongRow is one row of the song dimension, partitioned by
// (year, artist_id).
type SongRow struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Year     int32   `parquet:"name=year, type=INT32"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

// Partition returns the hive path fragment for the row.
func (r SongRow) Partition() string {
	return fmt.Sprintf("year=%d/artist_id=%s", r.Year, r.ArtistID)
}

// ArtistRow is one row of the artist dimension.
type ArtistRow struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name      string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Geohash   *string  `parquet:"name=geohash, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// UserRow is one row of the user dimension.
type UserRow struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// TimeRow is one row of the time dimension, keyed by the original
// millisecond timestamp. The derived fields are UTC.
type TimeRow struct {
	StartTime int64  `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Hour      int32  `parquet:"name=hour, type=INT32"`
	Day       int32  `parquet:"name=day, type=INT32"`
	Week      int32  `parquet:"name=week, type=INT32"`
	Month     int32  `parquet:"name=month, type=INT32"`
	Year      int32  `parquet:"name=year, type=INT32"`
	Weekday   string `parquet:"name=weekday, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// SongplayRow is one row of the songplays fact table, partitioned by
// (year, month). SongID and ArtistID are null when the event found no
// catalog match.
type SongplayRow struct {
	SongplayID int64   `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64   `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	UserID     string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Level      string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID   *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SessionID  int64   `parquet:"name=session_id, type=INT64"`
	Location   string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string  `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year       int32   `parquet:"name=year, type=INT32"`
	Month      int32   `parquet:"name=month, type=INT32"`
}

// Partition returns the hive path fragment for the row.
func (r SongplayRow) Partition() string {
	return fmt.Sprintf("year=%d/month=%d", r.Year, r.Month)
}

// SongFrom projects a catalog record onto the song dimension.
func SongFrom(rec CatalogRecord) SongRow {
	return SongRow{
		SongID:   rec.SongID,
		Title:    rec.Title,
		ArtistID: rec.ArtistID,
		Year:     rec.Year,
		Duration: rec.Duration,
	}
}

// ArtistFrom projects a catalog record onto the artist dimension. When
// both coordinates are present the geohash column is filled in.
func ArtistFrom(rec CatalogRecord) ArtistRow {
	row := ArtistRow{
		ArtistID:  rec.ArtistID,
		Name:      rec.ArtistName,
		Location:  rec.ArtistLocation,
		Latitude:  rec.ArtistLatitude,
		Longitude: rec.ArtistLongitude,
	}
	if rec.ArtistLatitude != nil && rec.ArtistLongitude != nil {
		gh := geohash.EncodeWithPrecision(*rec.ArtistLatitude, *rec.ArtistLongitude, geohashChars)
		row.Geohash = &gh
	}
	return row
}

// UserFrom projects an event record onto the user dimension.
func UserFrom(rec EventRecord) UserRow {
	return UserRow{
		UserID:    rec.UserID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Gender:    rec.Gender,
		Level:     rec.Level,
	}
}

// EventTime converts a millisecond epoch timestamp to UTC.
func EventTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// TimeFrom decomposes a millisecond epoch timestamp into the time
// dimension. Week is the ISO week number.
func TimeFrom(ms int64) TimeRow {
	t := EventTime(ms)
	_, week := t.ISOWeek()
	return TimeRow{
		StartTime: ms,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   t.Weekday().String(),
	}
}

type songKey struct {
	title    string
	artist   string
	duration float64
}

// SongIndex resolves an event's (song title, artist name, duration)
// triple to the catalog's song and artist ids. Matching is exact: both
// sides of the duration comparison come from the same JSON number
// decoding, so equal source text yields equal floats.
type SongIndex struct {
	ids map[songKey]catalogIDs
}

type catalogIDs struct {
	songID   string
	artistID string
}

// NewSongIndex builds an index over the given catalog records. When two
// records share a key the last one wins, mirroring dimension dedup.
func NewSongIndex(recs []CatalogRecord) *SongIndex {
	ix := &SongIndex{ids: make(map[songKey]catalogIDs, len(recs))}
	for _, rec := range recs {
		key := songKey{title: rec.Title, artist: rec.ArtistName, duration: rec.Duration}
		ix.ids[key] = catalogIDs{songID: rec.SongID, artistID: rec.ArtistID}
	}
	return ix
}

// Lookup returns the catalog ids for an event, or nils when no catalog
// entry matches. A miss is not an error; the fact row keeps null
// foreign keys.
func (ix *SongIndex) Lookup(song, artist string, duration float64) (songID, artistID *string) {
	ids, ok := ix.ids[songKey{title: song, artist: artist, duration: duration}]
	if !ok {
		return nil, nil
	}
	return &ids.songID, &ids.artistID
}
