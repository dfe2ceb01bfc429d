package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"virtual-hr-be/pkg/apperror"
	"virtual-hr-be/pkg/ledger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	scopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
	defaultBaseURL    = "https://sheets.googleapis.com/v4/spreadsheets"
	valueRange        = "A1:Z"
)

// Client is a ledger backed by Google Sheets, one spreadsheet per logical sheet.
// Rows are addressed by the header line, which is written on first append.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sheetIDs   map[string]string

	mu      sync.Mutex
	headers map[string][]string
}

var _ ledger.Ledger = (*Client)(nil)

// New authenticates with a service-account credentials file.
func New(ctx context.Context, credentialsFile string, sheetIDs map[string]string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopeSpreadsheets)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return NewWithHTTPClient(oauth2.NewClient(ctx, creds.TokenSource), defaultBaseURL, sheetIDs), nil
}

// NewWithHTTPClient builds a client over an already-authorised http.Client.
func NewWithHTTPClient(httpClient *http.Client, baseURL string, sheetIDs map[string]string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sheetIDs:   sheetIDs,
		headers:    make(map[string][]string),
	}
}

type valuesPayload struct {
	Values [][]string `json:"values"`
}

func (c *Client) AppendRow(ctx context.Context, sheet string, fields ledger.Row) error {
	cols, err := c.ensureHeaders(ctx, sheet)
	if err != nil {
		return err
	}

	row := make([]string, len(cols))
	for i, col := range cols {
		row[i] = fields[col]
	}
	return c.append(ctx, sheet, row)
}

func (c *Client) ReadRows(ctx context.Context, sheet string, filter ledger.Filter) ([]ledger.Row, error) {
	values, err := c.read(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	cols := values[0]
	var out []ledger.Row
	for _, line := range values[1:] {
		row := make(ledger.Row, len(cols))
		for i, col := range cols {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		if filter.Match(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (c *Client) ensureHeaders(ctx context.Context, sheet string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cols, ok := c.headers[sheet]; ok {
		return cols, nil
	}

	want := ledger.Headers(sheet)
	if want == nil {
		return nil, fmt.Errorf("unknown sheet %q", sheet)
	}

	values, err := c.read(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		if err := c.append(ctx, sheet, want); err != nil {
			return nil, err
		}
		c.headers[sheet] = want
		return want, nil
	}

	// keep the existing column order so manual edits to the sheet survive
	c.headers[sheet] = values[0]
	return values[0], nil
}

func (c *Client) read(ctx context.Context, sheet string) ([][]string, error) {
	id, err := c.sheetID(sheet)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s", c.baseURL, url.PathEscape(id), url.PathEscape(valueRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload valuesPayload
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.Values, nil
}

func (c *Client) append(ctx context.Context, sheet string, row []string) error {
	id, err := c.sheetID(sheet)
	if err != nil {
		return err
	}

	body, err := json.Marshal(valuesPayload{Values: [][]string{row}})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(id), url.PathEscape(valueRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrLedgerUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: sheets status %d", apperror.ErrLedgerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}

func (c *Client) sheetID(sheet string) (string, error) {
	id := c.sheetIDs[sheet]
	if id == "" {
		return "", fmt.Errorf("no spreadsheet configured for sheet %q", sheet)
	}
	return id, nil
}
