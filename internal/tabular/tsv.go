package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrPersistence wraps every failure to read or write a dataset file.
var ErrPersistence = errors.New("persistence error")

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// Decode parses a tab separated dataset, the first row holds the headers.
// Placeholder cells and cells missing from short rows are left absent from
// their records.
func Decode(r io.Reader) (Dataset, error) {
	rows, err := newReader(r).ReadAll()
	if err != nil {
		return Dataset{}, err
	}
	if len(rows) == 0 {
		return Dataset{}, nil
	}

	d := Dataset{Headers: rows[0]}
	for _, row := range rows[1:] {
		record := Record{}
		for i, h := range d.Headers {
			if i >= len(row) || row[i] == Placeholder {
				continue
			}
			record.Set(h, row[i])
		}
		d.Records = append(d.Records, record)
	}
	return d, nil
}

// Encode writes the dataset's rows as tab separated values.
func Encode(w io.Writer, d Dataset) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	err := writer.WriteAll(d.Rows())
	if err != nil {
		return err
	}
	return writer.Error()
}

// Load reads the dataset at path, a missing file is an empty dataset.
func Load(path string) (Dataset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: open %s: %w", ErrPersistence, path, err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: parse %s: %w", ErrPersistence, path, err)
	}
	return d, nil
}

// Save rewrites the file at path with the dataset. The rows are written to a
// temporary file in the same directory which is then renamed over path, so
// readers see either the old or the new file but never a truncated one.
func Save(path string, d Dataset) error {
	var buf bytes.Buffer
	err := Encode(&buf, d)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", ErrPersistence, dir, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(buf.Bytes())
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, path, err)
	}
	return nil
}
