package stream

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/schema"
)

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the log file
	StartOffset int64  // Offset to start reading from
}

// LogReader provides sequential access to the records in a log file.
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	schema *schema.Schema
	offset int64
}

// NewLogReader opens a record log for reading.
func NewLogReader(s *schema.Schema, config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		schema: s,
		offset: config.StartOffset,
	}, nil
}

// ReadNext reads the next record from the current offset. It returns io.EOF
// at a clean end of log; a trailing partial record reports
// codec.ErrTruncatedInput.
func (r *LogReader) ReadNext() (*codec.Record, error) {
	// Peek one byte so a clean end of log is io.EOF, not a truncation.
	if _, err := r.reader.Peek(1); err == io.EOF {
		return nil, io.EOF
	}

	rec := codec.NewRecord(r.schema)
	n, err := rec.ReadFrom(r.reader)
	r.offset += n
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadAt reads the record starting at a specific offset, leaving the
// sequential position at the record's end.
func (r *LogReader) ReadAt(offset int64) (*codec.Record, error) {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	r.reader.Reset(r.file)
	r.offset = offset
	return r.ReadNext()
}

// Offset returns the current read offset.
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Close closes the log file.
func (r *LogReader) Close() error {
	return r.file.Close()
}

// ForEach reads every remaining record, stopping on the first error. A clean
// end of log is not an error.
func (r *LogReader) ForEach(fn func(*codec.Record) error) error {
	for {
		rec, err := r.ReadNext()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
