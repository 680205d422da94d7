package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"eventbudget/internal/core"
	"eventbudget/internal/log"
	ports "eventbudget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// maxTitle is the longest sheet title Google Sheets accepts.
const maxTitle = 100

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
	logger        *log.Logger

	// known sheet titles, refreshed after cacheValidDuration
	mu                 sync.Mutex
	knownSheets        map[string]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.SummaryWriter = (*Client)(nil)

// New creates a Sheets client writing one sheet per event, titled
// "<sheetPrefix> <eventID>". Without options, credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetPrefix string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheetPrefix) == "" {
		sheetPrefix = "Summary"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		credentialOpts, err := serviceAccountOptions(ctx, logger)
		if err != nil {
			return nil, err
		}
		opts = append(credentialOpts, goption.WithHTTPClient(newHTTPClientWithPooling()))
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetPrefix:        strings.TrimSpace(sheetPrefix),
		logger:             logger,
		cacheValidDuration: 10 * time.Minute,
	}, nil
}

// serviceAccountOptions reads Service Account credentials from the
// environment.
func serviceAccountOptions(ctx context.Context, logger *log.Logger) ([]goption.ClientOption, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteSummary creates the event's sheet if needed, clears it and writes the
// summary rows from A1. It returns the written range.
func (c *Client) WriteSummary(ctx context.Context, ownerID string, summary core.EventSummary) (string, error) {
	if summary.Event.ID == "" {
		return "", errors.New("summary has no event id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	title := c.sheetTitle(summary.Event.ID)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	sheet := quoteTitle(title)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to clear sheet %s: %w", title, err)
	}

	rows := ports.Rows(summary)
	rng := fmt.Sprintf("%s!A1:G%d", sheet, len(rows))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update sheet %s: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Summary exported",
		log.FieldOwnerID, ownerID,
		log.FieldEventID, summary.Event.ID,
		"range", rng)
	return rng, nil
}

func (c *Client) sheetTitle(eventID string) string {
	title := c.sheetPrefix + " " + eventID
	if len(title) > maxTitle {
		title = title[:maxTitle]
	}
	return title
}

// quoteTitle quotes a sheet title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().After(c.cacheExpiresAt) {
		resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to list sheets: %w", err)
		}
		c.knownSheets = make(map[string]struct{}, len(resp.Sheets))
		for _, s := range resp.Sheets {
			if s.Properties != nil {
				c.knownSheets[s.Properties.Title] = struct{}{}
			}
		}
		c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	}
	if _, ok := c.knownSheets[title]; ok {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", title, err)
	}
	c.knownSheets[title] = struct{}{}
	return nil
}

// InvalidateSheetCache forces the next write to re-read the sheet titles.
func (c *Client) InvalidateSheetCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
}
