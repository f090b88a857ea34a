package parquet

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// marshal/unmarshal parallelism handed to parquet-go per file.
const np = 4

// PartFile is the name of the single data file written per table (or
// per partition of a table).
const PartFile = "part-00000.parquet"

// Write writes rows as one snappy-compressed parquet file at name.
// sample must be a pointer to the row type carrying parquet tags; rows
// hold values of that type.
func Write(fs FS, name string, sample interface{}, rows []interface{}) error {
	fw, err := fs.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	pw, err := writer.NewParquetWriter(fw, sample, np)
	if err != nil {
		fw.Close()
		return errors.Wrap(err, "getting parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return errors.Wrapf(err, "writing row to %s", name)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return errors.Wrapf(err, "finishing %s", name)
	}
	return errors.Wrapf(fw.Close(), "closing %s", name)
}

// WritePartitioned groups rows into hive-style col=value subdirectories
// of dir and writes one parquet file per partition. partition maps a
// row to its path fragment (e.g. "year=2018/month=11"). Group order
// follows first appearance in rows, so sorted input yields a
// deterministic layout. Partition columns stay present in the data
// files as well, so a partition-unaware reader still sees whole rows.
func WritePartitioned(fs FS, dir string, sample interface{}, rows []interface{}, partition func(row interface{}) string) error {
	groups := map[string][]interface{}{}
	var order []string
	for _, row := range rows {
		p := partition(row)
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], row)
	}
	for _, p := range order {
		name := fs.Join(dir, p, PartFile)
		if err := Write(fs, name, sample, groups[p]); err != nil {
			return errors.Wrapf(err, "writing partition %s", p)
		}
	}
	return nil
}

// Read reads the parquet file at name into dest, which must be a
// pointer to a slice of the row type. sample must be a pointer to the
// row type.
func Read(fs FS, name string, sample interface{}, dest interface{}) error {
	fr, err := fs.Open(name)
	if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, sample, np)
	if err != nil {
		return errors.Wrap(err, "getting parquet reader")
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.MakeSlice(v.Type(), num, num))
	if num == 0 {
		return nil
	}
	return errors.Wrapf(pr.Read(dest), "reading %s", name)
}
