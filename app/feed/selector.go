package feed

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lysyi3m/listing-comb/app/listing"
)

// Korean blog dates look like "2024. 5. 1." optionally followed by a time.
var dottedDate = regexp.MustCompile(`^(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?`)

type Selector struct {
	loc *time.Location
}

func NewSelector(loc *time.Location) *Selector {
	if loc == nil {
		loc = time.Local
	}
	return &Selector{loc: loc}
}

// Select keeps records posted on asOf or the day before whose URL is not in
// existing. Feed order is preserved and each URL is selected at most once.
// Records with unparseable dates are skipped.
func (s *Selector) Select(records []Record, existing map[string]struct{}, asOf time.Time) []Candidate {
	today := dateOf(asOf.In(s.loc))
	yesterday := today.AddDate(0, 0, -1)

	seen := make(map[string]struct{}, len(records))
	candidates := make([]Candidate, 0)

	for _, record := range records {
		posted, err := s.ParseDate(record.PostedAt)
		if err != nil {
			slog.Debug("Skipping record with unparseable date", "url", record.PostURL, "posted_at", record.PostedAt)
			continue
		}

		if !posted.Equal(today) && !posted.Equal(yesterday) {
			continue
		}

		if _, ok := existing[record.PostURL]; ok {
			continue
		}
		if _, ok := seen[record.PostURL]; ok {
			continue
		}
		seen[record.PostURL] = struct{}{}

		candidates = append(candidates, Candidate{
			SourceLabel: record.SourceLabel,
			PostURL:     record.PostURL,
		})
	}

	return candidates
}

// ParseDate parses a freeform date and returns midnight of its calendar day
// in the selector's location.
func (s *Selector) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if m := dottedDate.FindStringSubmatch(value); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		value = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}

	t, err := dateparse.ParseIn(value, s.loc)
	if err != nil {
		return time.Time{}, err
	}

	// Zoned timestamps keep their own calendar day; naive ones are read in s.loc.
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc), nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// URLSnapshot collects the URL column of every output row after the header.
func URLSnapshot(rows [][]string) map[string]struct{} {
	snapshot := make(map[string]struct{}, len(rows))
	if len(rows) < 2 {
		return snapshot
	}

	for _, row := range rows[1:] {
		if len(row) <= listing.URLColumnIndex {
			continue
		}
		snapshot[row[listing.URLColumnIndex]] = struct{}{}
	}

	return snapshot
}
