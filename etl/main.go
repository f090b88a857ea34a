package etl

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"github.com/sparkify/starlake"
	"github.com/sparkify/starlake/aws/s3"
	"github.com/sparkify/starlake/file"
	"github.com/sparkify/starlake/parquet"
)

// Main contains the configuration for a full star-schema run.
// Locations may be local paths or s3:// URLs; a session is only
// acquired when at least one location is on S3.
type Main struct {
	CatalogData string `help:"Location of raw catalog (song) data. Local path or s3:// URL."`
	EventData   string `help:"Location of raw event (activity log) data. Local path or s3:// URL."`
	Output      string `help:"Location to write the star schema under. Local path or s3:// URL."`
	Region      string `help:"AWS region to use."`
	Endpoint    string `help:"Custom S3 endpoint (e.g. a MinIO host). Blank uses AWS."`
	Creds       string `help:"Key/value file supplying access_key_id and secret_access_key. Blank uses the SDK default chain."`
	Workers     int    `help:"Concurrent object readers per stage."`
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		CatalogData: "s3://udacity-dend/song_data",
		EventData:   "s3://udacity-dend/log_data",
		Output:      "s3://sparkify-lake/star",
		Region:      "us-west-2",
		Workers:     8,
	}
}

// Run executes the catalog stage and then the event stage. The session
// handle is acquired once here and threaded through both stages; the
// first error aborts the run with no cleanup of partial output.
func (m *Main) Run() error {
	sess, err := m.session(m.CatalogData, m.EventData, m.Output)
	if err != nil {
		return err
	}
	if err := m.runCatalog(sess); err != nil {
		return errors.Wrap(err, "processing catalog data")
	}
	return errors.Wrap(m.runEvents(sess), "processing event data")
}

// RunCatalog executes only the catalog stage.
func (m *Main) RunCatalog() error {
	sess, err := m.session(m.CatalogData, m.Output)
	if err != nil {
		return err
	}
	return errors.Wrap(m.runCatalog(sess), "processing catalog data")
}

// RunEvents executes only the event stage.
func (m *Main) RunEvents() error {
	sess, err := m.session(m.EventData, m.CatalogData, m.Output)
	if err != nil {
		return err
	}
	return errors.Wrap(m.runEvents(sess), "processing event data")
}

func (m *Main) runCatalog(sess *session.Session) error {
	src, err := m.source(sess, m.CatalogData)
	if err != nil {
		return errors.Wrap(err, "getting catalog source")
	}
	sink, outDir := m.sink(sess)
	return ProcessCatalog(src, sink, outDir, m.Workers)
}

func (m *Main) runEvents(sess *session.Session) error {
	events, err := m.source(sess, m.EventData)
	if err != nil {
		return errors.Wrap(err, "getting event source")
	}
	catalog, err := m.source(sess, m.CatalogData)
	if err != nil {
		return errors.Wrap(err, "getting catalog source")
	}
	sink, outDir := m.sink(sess)
	return ProcessEvents(events, catalog, sink, outDir, m.Workers)
}

// session returns a storage session when any of the locations needs
// one, nil otherwise.
func (m *Main) session(locs ...string) (*session.Session, error) {
	needed := false
	for _, loc := range locs {
		if _, _, ok := s3.ParseLocation(loc); ok {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	sess, err := s3.NewSession(s3.SessionConfig{
		Region:    m.Region,
		Endpoint:  m.Endpoint,
		CredsFile: m.Creds,
	})
	return sess, errors.Wrap(err, "getting storage session")
}

func (m *Main) source(sess *session.Session, loc string) (starlake.RawSource, error) {
	if bucket, prefix, ok := s3.ParseLocation(loc); ok {
		return s3.NewRawSource(sess, bucket, prefix)
	}
	return file.NewRawSource(loc)
}

func (m *Main) sink(sess *session.Session) (parquet.FS, string) {
	if bucket, prefix, ok := s3.ParseLocation(m.Output); ok {
		return parquet.NewS3FS(sess, bucket), prefix
	}
	return parquet.LocalFS{}, m.Output
}
