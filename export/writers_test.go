package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/reviewpulse/go-collect-reviews/models"
)

func sampleReview() *models.ReviewRecord {
	return &models.ReviewRecord{
		ReviewID:         "R1TESTREVIEW",
		Author:           "Alice",
		Rating:           4,
		Title:            "Solid purchase",
		Body:             "Works as described, arrived on time.",
		ReviewDate:       "January 2, 2024",
		VerifiedPurchase: true,
		HelpfulVotes:     12,
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	if err := writer.Write([]*models.ReviewRecord{sampleReview()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "review_id" || records[0][1] != "author" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "R1TESTREVIEW" || records[1][2] != "4" || records[1][6] != "true" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]*models.ReviewRecord{sampleReview()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.ReviewRecord
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.ReviewID != "R1TESTREVIEW" {
			t.Fatalf("decoded id = %q", decoded.ReviewID)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "reviews.csv")
	jsonPath := filepath.Join(dir, "reviews.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}

	if err := writer.Write([]*models.ReviewRecord{sampleReview()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestForFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format string
		ok     bool
	}{
		{format: "csv", ok: true},
		{format: "json", ok: true},
		{format: "dual", ok: true},
		{format: "xml", ok: false},
	}

	for _, tt := range tests {
		writer, err := ForFormat(tt.format, filepath.Join(dir, tt.format+"-out.csv"))
		if tt.ok && err != nil {
			t.Fatalf("format %s: %v", tt.format, err)
		}
		if !tt.ok {
			if err == nil {
				t.Fatalf("format %s accepted", tt.format)
			}
			continue
		}
		writer.Close()
	}
}
