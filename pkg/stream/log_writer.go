// Package stream appends and reads packed records in sequential log files.
// Every record in a log shares one schema, so the format is just the packed
// bytes back to back: record i starts at offset i*TotalBytes.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/schema"
)

// ErrSchemaMismatch is reported when a record's schema does not match the
// log's schema.
var ErrSchemaMismatch = errors.New("record schema does not match log schema")

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath   string // Path to the log file
	BufferSize int    // Write buffer size (0 uses the bufio default)
}

// LogWriter appends packed records to a log file. Safe for concurrent use.
type LogWriter struct {
	file   *os.File
	writer *bufio.Writer
	schema *schema.Schema
	mutex  sync.Mutex
	offset int64 // Current write offset
}

// NewLogWriter opens (or creates) a record log for appending.
func NewLogWriter(s *schema.Schema, config LogWriterConfig) (*LogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	var writer *bufio.Writer
	if config.BufferSize > 0 {
		writer = bufio.NewWriterSize(file, config.BufferSize)
	} else {
		writer = bufio.NewWriter(file)
	}

	return &LogWriter{
		file:   file,
		writer: writer,
		schema: s,
		offset: stat.Size(),
	}, nil
}

// Append writes one record to the log and returns the offset it starts at.
func (w *LogWriter) Append(rec *codec.Record) (int64, error) {
	if rec.Schema() != w.schema {
		return 0, ErrSchemaMismatch
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := rec.WriteTo(w.writer)
	if err != nil {
		return 0, fmt.Errorf("failed to append record: %w", err)
	}

	recordOffset := w.offset
	w.offset += n
	return recordOffset, nil
}

// Sync flushes the buffer and fsyncs the file.
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and closes the log file.
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
