package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	Mode string `long:"mode" env:"MODE" default:"run" choice:"run" choice:"serve" description:"run: process the feed once and exit; serve: HTTP server with scheduled runs"`

	// Feed and output
	FeedSource      string `long:"feed-source" env:"FEED_SOURCE" default:"sheets" choice:"sheets" choice:"rss" description:"Where blog posts are listed"`
	FeedSheetID     string `long:"feed-sheet-id" env:"FEED_SHEET_ID" default:"10lLkfTb_uf68cU2w2OAcXXN6QBiuXGnayK3nf1247tY" description:"Spreadsheet holding the post feed"`
	FeedSheetName   string `long:"feed-sheet-name" env:"FEED_SHEET_NAME" description:"Sheet name in the feed spreadsheet (first sheet if empty)"`
	Store           string `long:"store" env:"STORE" default:"sheets" choice:"sheets" choice:"csv" choice:"sqlite" description:"Output table backend"`
	ResultSheetID   string `long:"result-sheet-id" env:"RESULT_SHEET_ID" default:"1onQ8R2S-RaH57pel-s-cx1R1RKlagIqRpL8fIoyTnqk" description:"Spreadsheet receiving extracted listings"`
	ResultSheetName string `long:"result-sheet-name" env:"RESULT_SHEET_NAME" description:"Sheet name in the result spreadsheet (first sheet if empty)"`
	CSVPath         string `long:"csv-path" env:"CSV_PATH" default:"./data/listings.csv" description:"Output file for the csv store"`
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./data/listing-comb.db" description:"SQLite database for run history and the sqlite store"`
	FeedsDir        string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing RSS feed configuration files"`

	// Credentials
	GoogleCredentialsJSON string `long:"google-credentials-json" env:"GOOGLE_CREDENTIALS_JSON" description:"Service account key as JSON"`
	GoogleCredentialsFile string `long:"google-credentials-file" env:"GOOGLE_CREDENTIALS_FILE" description:"Path to a service account key file"`
	OpenAIAPIKey          string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required)"`

	// Oracle
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo" description:"Chat model used for extraction"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"Alternative OpenAI-compatible endpoint"`
	OracleTimeout int    `long:"oracle-timeout" env:"ORACLE_TIMEOUT" default:"60" description:"Oracle call timeout in seconds"`

	// Page fetching
	PacingDelay     time.Duration `long:"pacing-delay" env:"PACING_DELAY" default:"3s" description:"Wait between fetching a post and extracting it"`
	FetchTimeout    int           `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Page fetch timeout in seconds"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; ListingComb/1.0)" description:"User agent string for HTTP requests"`
	FrameSelector   string        `long:"frame-selector" env:"FRAME_SELECTOR" default:"iframe#mainFrame" description:"CSS selector of the frame holding the post"`
	ContentSelector string        `long:"content-selector" env:"CONTENT_SELECTOR" default:".se-main-container" description:"CSS selector of the post body"`
	ContentFallback string        `long:"content-fallback" env:"CONTENT_FALLBACK" default:"none" choice:"none" choice:"readability" description:"Extraction used when the post body is not found"`

	// Serve mode
	Port         string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	Schedule     string        `long:"schedule" env:"SCHEDULE" default:"0 9 * * *" description:"Cron schedule for runs in serve mode (empty disables)"`
	RedisURL     string        `long:"redis-url" env:"REDIS_URL" description:"Redis URL for a cross-process run lock (optional)"`
	LockTTL      time.Duration `long:"lock-ttl" env:"LOCK_TTL" default:"30m" description:"Expiry of the Redis run lock"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"Asia/Seoul" description:"Timezone for post dates and collection dates"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads an optional .env file, then flags and environment variables.
// It returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Mode:                  raw.Mode,
		FeedSource:            raw.FeedSource,
		FeedSheetID:           raw.FeedSheetID,
		FeedSheetName:         raw.FeedSheetName,
		Store:                 raw.Store,
		ResultSheetID:         raw.ResultSheetID,
		ResultSheetName:       raw.ResultSheetName,
		CSVPath:               raw.CSVPath,
		DBPath:                raw.DBPath,
		FeedsDir:              raw.FeedsDir,
		GoogleCredentialsJSON: raw.GoogleCredentialsJSON,
		GoogleCredentialsFile: raw.GoogleCredentialsFile,
		OpenAIAPIKey:          raw.OpenAIAPIKey,
		OpenAIModel:           raw.OpenAIModel,
		OpenAIBaseURL:         raw.OpenAIBaseURL,
		OracleTimeout:         time.Duration(raw.OracleTimeout) * time.Second,
		PacingDelay:           raw.PacingDelay,
		FetchTimeout:          time.Duration(raw.FetchTimeout) * time.Second,
		UserAgent:             raw.UserAgent,
		FrameSelector:         raw.FrameSelector,
		ContentSelector:       raw.ContentSelector,
		ContentFallback:       raw.ContentFallback,
		Port:                  raw.Port,
		APIAccessKey:          raw.APIAccessKey,
		Schedule:              raw.Schedule,
		RedisURL:              raw.RedisURL,
		LockTTL:               raw.LockTTL,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the secrets needed by the selected backends are
// present and resolves the timezone.
func (c *Cfg) Validate() error {
	var errs []error

	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}

	if c.UsesSheets() {
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
			errs = append(errs, errors.New("GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE is required for the sheets backend"))
		}
		if c.FeedSource == SourceSheets && c.FeedSheetID == "" {
			errs = append(errs, errors.New("FEED_SHEET_ID is required for the sheets feed source"))
		}
		if c.Store == StoreSheets && c.ResultSheetID == "" {
			errs = append(errs, errors.New("RESULT_SHEET_ID is required for the sheets store"))
		}
	}

	if c.PacingDelay < 0 {
		errs = append(errs, fmt.Errorf("pacing delay must be non-negative, got %s", c.PacingDelay))
	}
	if c.OracleTimeout <= 0 || c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("oracle and fetch timeouts must be positive"))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	} else {
		c.Location = loc
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Cfg) UsesSheets() bool {
	return c.FeedSource == SourceSheets || c.Store == StoreSheets
}

// GoogleCredentials returns the service account key, read from the file
// when no inline JSON is configured.
func (c *Cfg) GoogleCredentials() ([]byte, error) {
	if c.GoogleCredentialsJSON != "" {
		return []byte(c.GoogleCredentialsJSON), nil
	}

	data, err := os.ReadFile(c.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	return data, nil
}
