// starlake reshapes a music-streaming service's raw JSON catalog and
// activity logs into a five-table star schema written back to object
// storage as partitioned parquet.
//
// The moving parts are deliberately small and composable:
//
// 1. RawSource
//
//    A starlake.RawSource hands out the raw objects one reader at a
//    time, wherever they live - an S3 bucket (aws/s3), a local
//    directory tree (file), or hard-coded in tests. Sources know
//    nothing about what the bytes mean; they only know how to list and
//    stream objects.
//
// 2. json.Source
//
//    Records arrive as newline-delimited JSON. The json package splits
//    an object into records and is deliberately lenient: a malformed
//    line is reported as a bad record which the caller may count and
//    skip, and never poisons the rest of the object.
//
// 3. etl
//
//    The etl package owns the star-schema contract: which fields of a
//    catalog or event record land in which table, how timestamps are
//    decomposed, how rows are deduplicated, and how the songplays fact
//    table resolves its foreign keys against the song catalog.
//
// 4. parquet
//
//    The parquet package is the sink. It writes each table as snappy
//    parquet, hive-partitioned where the schema calls for it, to a
//    local directory or an S3 prefix behind the same FS interface.
//
// Parallelism lives in starlake.Walk, which fans a RawSource out to a
// worker pool; the mapping code issues declarative projections and does
// no threading of its own.
package starlake
