package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// CSV is the default ledger: a comma-separated file with a header line,
// appended to and flushed after every row.
type CSV struct {
	path   string
	schema Schema
	file   *os.File
	writer *csv.Writer
}

// OpenCSV prepares a CSV ledger. The file is not created until the first
// Append; an existing file must carry the schema's header.
func OpenCSV(path string, schema Schema) (*CSV, error) {
	c := &CSV{path: path, schema: schema}
	header, err := c.readHeader()
	if err != nil {
		return nil, err
	}
	if header != nil && !schema.matches(header) {
		return nil, fmt.Errorf("%w: %s has columns %s, want %s", ErrSchemaMismatch, path,
			strings.Join(header, ","), strings.Join(schema.Columns, ","))
	}
	return c, nil
}

func (c *CSV) readHeader() ([]string, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	return header, nil
}

// Evaluated reports whether some record of the file has name in its first
// field. Fields are compared after CSV unquoting, so names Append had to quote
// are still found. A missing file means nothing has been evaluated.
func (c *CSV) Evaluated(name string) (bool, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("scan ledger: %w", err)
		}
		if len(rec) > 0 && rec[0] == name {
			return true, nil
		}
	}
}

// Append writes r, preceded by the header when the file is new or empty.
func (c *CSV) Append(r Row) error {
	if err := c.schema.check(r); err != nil {
		return err
	}
	if c.writer == nil {
		if err := c.open(); err != nil {
			return err
		}
	}
	if err := c.writer.Write(r.Record()); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

func (c *CSV) open() error {
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat ledger: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(c.schema.Columns); err != nil {
			f.Close()
			return fmt.Errorf("write ledger header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return fmt.Errorf("flush ledger header: %w", err)
		}
	}
	c.file = f
	c.writer = w
	return nil
}

// Rows returns every data row in file order.
func (c *CSV) Rows() ([]Row, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, Row{Name: rec[0], Values: rec[1:]})
	}
	return rows, nil
}

func (c *CSV) Header() []string { return c.schema.Columns }

// Path returns the ledger file location.
func (c *CSV) Path() string { return c.path }

func (c *CSV) Close() error {
	if c.file == nil {
		return nil
	}
	c.writer.Flush()
	err := c.file.Close()
	c.file, c.writer = nil, nil
	return err
}
