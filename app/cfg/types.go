package cfg

import (
	"time"
)

const (
	ModeRun   = "run"
	ModeServe = "serve"

	SourceSheets = "sheets"
	SourceRSS    = "rss"

	StoreSheets = "sheets"
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"

	FallbackNone        = "none"
	FallbackReadability = "readability"
)

type Cfg struct {
	Mode string

	// Feed and output
	FeedSource      string
	FeedSheetID     string
	FeedSheetName   string
	Store           string
	ResultSheetID   string
	ResultSheetName string
	CSVPath         string
	DBPath          string
	FeedsDir        string

	// Credentials
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	OpenAIAPIKey          string

	// Oracle
	OpenAIModel   string
	OpenAIBaseURL string
	OracleTimeout time.Duration

	// Page fetching
	PacingDelay     time.Duration
	FetchTimeout    time.Duration
	UserAgent       string
	FrameSelector   string
	ContentSelector string
	ContentFallback string

	// Serve mode
	Port         string
	APIAccessKey string
	Schedule     string
	RedisURL     string
	LockTTL      time.Duration

	// Application metadata
	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}
