package listing

import (
	"testing"
	"time"
)

func TestHeader(t *testing.T) {
	header := Header()

	if len(header) != ColumnCount {
		t.Fatalf("Expected %d columns, got %d", ColumnCount, len(header))
	}

	expected := []string{
		"업체명", "URL", "단지명", "소재지", "중개대상물종류", "거래형태",
		"해당층/총층", "공급/전용면적", "룸/욕실", "주차대수",
		"향", "입주가능일", "사용승인일", "관리비", "수집일자",
	}
	for i, name := range expected {
		if header[i] != name {
			t.Errorf("Column %d: expected '%s', got '%s'", i, name, header[i])
		}
	}

	if header[URLColumnIndex] != URLColumn {
		t.Errorf("Expected URL column at index %d", URLColumnIndex)
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	f := Fields()
	f[0].Key = "changed"

	if Keys()[0] != "단지명" {
		t.Error("Fields() must not expose the underlying schema")
	}
}

func TestRecordRow_MissingFieldsAreEmpty(t *testing.T) {
	record := Record{
		SourceLabel: "Agency1",
		PostURL:     "http://x/1",
		Fields: Extracted{
			"소재지": "강남구 청담동 1-1",
			"향":   "남향",
			"비고":  "not part of the schema",
		},
		CollectedAt: time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC),
	}

	row := record.Row()

	if len(row) != ColumnCount {
		t.Fatalf("Expected %d cells, got %d", ColumnCount, len(row))
	}
	if row[0] != "Agency1" || row[1] != "http://x/1" {
		t.Errorf("Unexpected structural columns: %v", row[:2])
	}
	if row[3] != "강남구 청담동 1-1" {
		t.Errorf("Expected address in column 3, got '%s'", row[3])
	}
	if row[10] != "남향" {
		t.Errorf("Expected orientation in column 10, got '%s'", row[10])
	}
	if row[14] != "2024-05-01" {
		t.Errorf("Expected collection date '2024-05-01', got '%s'", row[14])
	}

	empty := 0
	for i := 2; i < 14; i++ {
		if row[i] == "" {
			empty++
		}
	}
	if empty != 10 {
		t.Errorf("Expected 10 empty extracted fields, got %d", empty)
	}
}

func TestRecordRow_NilFields(t *testing.T) {
	row := Record{SourceLabel: "a", PostURL: "b"}.Row()

	if len(row) != ColumnCount {
		t.Fatalf("Expected %d cells, got %d", ColumnCount, len(row))
	}
	for i := 2; i < 14; i++ {
		if row[i] != "" {
			t.Errorf("Expected empty cell at %d, got '%s'", i, row[i])
		}
	}
}

func TestExtractedCount(t *testing.T) {
	e := Extracted{"소재지": "x", "향": "", "unknown": "y"}
	if e.Count() != 1 {
		t.Errorf("Expected count 1, got %d", e.Count())
	}
}
