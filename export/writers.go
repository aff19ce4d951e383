// Package export persists collected review records to CSV and JSONL files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/reviewpulse/go-collect-reviews/models"
)

// Writer persists batches of review records.
type Writer interface {
	Write(records []*models.ReviewRecord) error
	Close() error
	Validate() error
}

// ForFormat builds the writer for a configured output format. The dual
// format derives the JSONL path from the CSV path.
func ForFormat(format, filename string) (Writer, error) {
	switch format {
	case "csv":
		return NewCSVWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		return NewDualWriter(filename, siblingPath(filename, ".jsonl"))
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func siblingPath(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"review_id", "author", "rating", "title", "body", "review_date", "verified_purchase", "helpful_votes"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends reviews to the CSV output.
func (cw *CSVWriter) Write(records []*models.ReviewRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, review := range records {
		row := []string{
			review.ReviewID,
			review.Author,
			strconv.Itoa(review.Rating),
			review.Title,
			review.Body,
			review.ReviewDate,
			strconv.FormatBool(review.VerifiedPurchase),
			strconv.Itoa(review.HelpfulVotes),
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends reviews in JSONL format.
func (jw *JSONWriter) Write(records []*models.ReviewRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, review := range records {
		if err := jw.encoder.Encode(review); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
