package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const rssData = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>강남부동산 블로그</title>
    <link>https://blog.naver.com/gangnam</link>
    <description>매물 소개</description>
    <item>
      <title>청담동 전세</title>
      <link>https://blog.naver.com/gangnam/1</link>
      <pubDate>Wed, 01 May 2024 10:00:00 +0900</pubDate>
    </item>
    <item>
      <title>링크 없는 글</title>
      <pubDate>Wed, 01 May 2024 11:00:00 +0900</pubDate>
    </item>
    <item>
      <title>삼성동 매매</title>
      <link>https://blog.naver.com/gangnam/2</link>
      <pubDate>Tue, 30 Apr 2024 09:00:00 +0900</pubDate>
    </item>
  </channel>
</rss>`

func TestParseRSS2(t *testing.T) {
	parser := NewParser()

	records, err := parser.Run([]byte(rssData), "강남부동산")
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.SourceLabel != "강남부동산" {
		t.Errorf("Expected label '강남부동산', got '%s'", first.SourceLabel)
	}
	if first.PostURL != "https://blog.naver.com/gangnam/1" {
		t.Errorf("Unexpected URL '%s'", first.PostURL)
	}
	if first.PostedAt != "Wed, 01 May 2024 10:00:00 +0900" {
		t.Errorf("Expected raw published date, got '%s'", first.PostedAt)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Agency</title>
  <entry>
    <title>Entry</title>
    <link href="https://example.com/posts/1"/>
    <id>urn:1</id>
    <updated>2024-05-01T10:00:00Z</updated>
  </entry>
</feed>`

	records, err := NewParser().Run([]byte(atomData), "")
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].SourceLabel != "Atom Agency" {
		t.Errorf("Expected feed title as label fallback, got '%s'", records[0].SourceLabel)
	}
	if records[0].PostedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("Expected updated date as fallback, got '%s'", records[0].PostedAt)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	if _, err := NewParser().Run([]byte("not a feed"), "x"); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}

func TestRSSSourceRecords(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.xml":
			userAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(rssData))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	tempDir := t.TempDir()
	configs := map[string]string{
		"a-good.yml":   "label: 강남부동산\nurl: " + server.URL + "/good.xml\nsettings:\n  enabled: true\n",
		"b-broken.yml": "url: " + server.URL + "/missing.xml\nsettings:\n  enabled: true\n",
	}
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	source := NewRSSSource(configCache, server.Client(), NewParser(), "Listing Comb/1.0")
	records, err := source.Records(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Errorf("Expected 2 records from the working feed, got %d", len(records))
	}
	if userAgent != "Listing Comb/1.0" {
		t.Errorf("Expected user agent to be sent, got '%s'", userAgent)
	}
}
