package feed

import (
	"context"
)

// Record is one row of the source feed.
type Record struct {
	SourceLabel string
	PostURL     string
	PostedAt    string // freeform, parsed at selection time
}

// Candidate is a feed record selected for processing in the current run.
type Candidate struct {
	SourceLabel string
	PostURL     string
}

type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// RowReader reads every row of a tabular store, header included.
type RowReader interface {
	ReadAll(ctx context.Context) ([][]string, error)
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Label    string         `yaml:"label"`
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled bool `yaml:"enabled"`
	Timeout int  `yaml:"timeout"` // seconds
}
