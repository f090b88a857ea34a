package etl

// Input record schemas are declared rather than inferred so that
// malformed input behaves the same on every run: a field that is
// missing or null decodes to its zero value, and a record whose shape
// doesn't unmarshal at all is counted and skipped by the loaders.

// CatalogRecord is one line of raw song data: a single song/artist
// pairing from the catalog dumps.
type CatalogRecord struct {
	NumSongs        int      `json:"num_songs"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	Year            int32    `json:"year"`
	Duration        float64  `json:"duration"`
}

// EventRecord is one line of raw activity-log data: a single user
// action against the service.
type EventRecord struct {
	Artist        string  `json:"artist"`
	Auth          string  `json:"auth"`
	FirstName     string  `json:"firstName"`
	Gender        string  `json:"gender"`
	ItemInSession int     `json:"itemInSession"`
	LastName      string  `json:"lastName"`
	Length        float64 `json:"length"`
	Level         string  `json:"level"`
	Location      string  `json:"location"`
	Method        string  `json:"method"`
	Page          string  `json:"page"`
	Registration  float64 `json:"registration"`
	SessionID     int64   `json:"sessionId"`
	Song          string  `json:"song"`
	Status        int     `json:"status"`
	TS            int64   `json:"ts"`
	UserAgent     string  `json:"userAgent"`
	UserID        string  `json:"userId"`
}

// PageNextSong is the action marker for rows that belong in the
// songplays fact table. Every other page type is discarded from every
// downstream table.
const PageNextSong = "NextSong"
