package parquet

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	ps3 "github.com/xitongsys/parquet-go-source/s3"
	"github.com/xitongsys/parquet-go/source"
)

// FS creates and opens parquet files by name. Implementations exist for
// the local filesystem and for S3 so the ETL stages and their tests run
// against the same code path.
type FS interface {
	Create(name string) (source.ParquetFile, error)
	Open(name string) (source.ParquetFile, error)
	Join(elem ...string) string
}

// LocalFS writes parquet files to the local filesystem, creating parent
// directories as needed.
type LocalFS struct{}

// Create implements FS.
func (LocalFS) Create(name string) (source.ParquetFile, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, errors.Wrap(err, "making parent dirs")
	}
	return local.NewLocalFileWriter(name)
}

// Open implements FS.
func (LocalFS) Open(name string) (source.ParquetFile, error) {
	return local.NewLocalFileReader(name)
}

// Join implements FS.
func (LocalFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// S3FS writes parquet objects into a bucket. Names passed to Create and
// Open are object keys.
type S3FS struct {
	client *awss3.S3
	bucket string
}

// NewS3FS returns an S3FS over the given bucket using the session.
func NewS3FS(sess *session.Session, bucket string) *S3FS {
	return &S3FS{client: awss3.New(sess), bucket: bucket}
}

// Create implements FS.
func (f *S3FS) Create(name string) (source.ParquetFile, error) {
	return ps3.NewS3FileWriterWithClient(context.Background(), f.client, f.bucket, name, "", nil)
}

// Open implements FS.
func (f *S3FS) Open(name string) (source.ParquetFile, error) {
	return ps3.NewS3FileReaderWithClient(context.Background(), f.client, f.bucket, name)
}

// Join implements FS.
func (f *S3FS) Join(elem ...string) string {
	return path.Join(elem...)
}
