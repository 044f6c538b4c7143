package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lysyi3m/listing-comb/app/listing"
)

// MockCompleter returns a canned response and records prompts
type MockCompleter struct {
	response string
	err      error
	prompts  []string
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestExtractor_Run_ValidResponse(t *testing.T) {
	completer := &MockCompleter{response: `{"소재지":"강남구 청담동 1-1","향":"남향"}`}
	extractor := NewExtractor(completer)

	fields := extractor.Run(context.Background(), "전세 보증금 5억, 남향")

	if fields["소재지"] != "강남구 청담동 1-1" {
		t.Errorf("Expected address, got '%s'", fields["소재지"])
	}
	if fields["향"] != "남향" {
		t.Errorf("Expected orientation, got '%s'", fields["향"])
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("Expected exactly one oracle call, got %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "전세 보증금 5억, 남향") {
		t.Error("Expected prompt to embed the post text")
	}
}

func TestExtractor_Extract_Failures(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		oracleErr error
		wantErr   error
	}{
		{"plain prose", "이 글은 전세 매물입니다.", nil, ErrMalformedResponse},
		{"JSON wrapped in prose", `결과: {"향":"남향"}`, nil, ErrMalformedResponse},
		{"top level array", `[{"향":"남향"}]`, nil, ErrMalformedResponse},
		{"top level string", `"남향"`, nil, ErrMalformedResponse},
		{"top level null", `null`, nil, ErrMalformedResponse},
		{"trailing object", `{"향":"남향"} {"향":"북향"}`, nil, ErrMalformedResponse},
		{"truncated", `{"향":"남`, nil, ErrMalformedResponse},
		{"empty", ``, nil, ErrMalformedResponse},
		{"oracle timeout", "", context.DeadlineExceeded, ErrOracle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor(&MockCompleter{response: tt.response, err: tt.oracleErr})

			result := extractor.Extract(context.Background(), "본문")

			if !errors.Is(result.Err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, result.Err)
			}
			if result.Fields == nil {
				t.Fatal("Expected non-nil empty fields")
			}
			if len(result.Fields) != 0 {
				t.Errorf("Expected empty fields, got %v", result.Fields)
			}
		})
	}
}

func TestExtractor_Extract_InvalidTextSkipsOracle(t *testing.T) {
	completer := &MockCompleter{response: `{"향":"남향"}`}
	extractor := NewExtractor(completer)

	result := extractor.Extract(context.Background(), "broken \xff\xfe text")

	if !errors.Is(result.Err, ErrNormalize) {
		t.Errorf("Expected ErrNormalize, got %v", result.Err)
	}
	if len(result.Fields) != 0 {
		t.Errorf("Expected empty fields, got %v", result.Fields)
	}
	if len(completer.prompts) != 0 {
		t.Errorf("Expected no oracle call, got %d", len(completer.prompts))
	}
}

func TestParseResponse_ScalarValues(t *testing.T) {
	fields, err := ParseResponse(`
	{"주차대수": 2, "관리비": null, "향": " 남향 ", "단지명": "래미안", "extra": {"a": 1}}
	`)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if fields["주차대수"] != "2" {
		t.Errorf("Expected number as text '2', got '%s'", fields["주차대수"])
	}
	if fields["관리비"] != "" {
		t.Errorf("Expected null as empty string, got '%s'", fields["관리비"])
	}
	if fields["향"] != "남향" {
		t.Errorf("Expected trimmed value, got '%s'", fields["향"])
	}
	if fields["extra"] != `{"a":1}` {
		t.Errorf("Expected nested value as compact JSON, got '%s'", fields["extra"])
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("본문 텍스트")

	if prompt != BuildPrompt("본문 텍스트") {
		t.Error("Expected prompt to be deterministic")
	}

	last := -1
	for _, key := range listing.Keys() {
		idx := strings.Index(prompt, "- "+key)
		if idx < 0 {
			t.Errorf("Expected prompt to list field '%s'", key)
			continue
		}
		if idx < last {
			t.Errorf("Expected field '%s' to follow schema order", key)
		}
		last = idx
	}

	if !strings.Contains(prompt, "JSON") {
		t.Error("Expected prompt to demand JSON")
	}
	if !strings.HasSuffix(strings.TrimSpace(prompt), "본문 텍스트") {
		t.Error("Expected prompt to end with the post text")
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	inputs := []string{
		"전세 보증금 5억, 남향",
		"line one\nline two\ttabbed",
		`quote " and backslash \ stay reversible`,
		"bell \a and nul \x00",
		"",
	}

	for _, input := range inputs {
		normalized, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", input, err)
		}
		if strings.ContainsAny(normalized, "\n\t\x00\a") {
			t.Errorf("Expected control characters to be escaped, got %q", normalized)
		}

		restored, err := Unescape(normalized)
		if err != nil {
			t.Fatalf("Unescape(%q) failed: %v", normalized, err)
		}
		if restored != input {
			t.Errorf("Round trip mismatch: got %q, want %q", restored, input)
		}
	}
}

func TestNormalize_KeepsHangul(t *testing.T) {
	normalized, err := Normalize("남향")
	if err != nil {
		t.Fatal(err)
	}
	if normalized != "남향" {
		t.Errorf("Expected Hangul unchanged, got %q", normalized)
	}
}

func TestNormalize_ComposesDecomposedHangul(t *testing.T) {
	// "남" as conjoining jamo
	decomposed := "\u1102\u1161\u11b7"

	normalized, err := Normalize(decomposed)
	if err != nil {
		t.Fatal(err)
	}
	if normalized != "\ub0a8" {
		t.Errorf("Expected composed syllable, got %q", normalized)
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	_, err := Normalize("\xff")
	if !errors.Is(err, ErrNormalize) {
		t.Errorf("Expected ErrNormalize, got %v", err)
	}
}
