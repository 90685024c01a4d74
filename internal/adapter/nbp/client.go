package nbp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoPublication signals that NBP published no table for the requested
// date (weekends and Polish public holidays).
var ErrNoPublication = errors.New("nbp: no publication for date")

// Table is one table A publication: mid rates for all listed currencies
// on one effective date.
type Table struct {
	No            string    `json:"no"`
	EffectiveDate civilDate `json:"effectiveDate"`
	Rates         []Rate    `json:"rates"`
}

// Rate is one currency's mid quote within a publication.
type Rate struct {
	Currency string          `json:"currency"`
	Code     string          `json:"code"`
	Mid      decimal.Decimal `json:"mid"`
}

// civilDate unmarshals NBP's date-only format.
type civilDate time.Time

func (d *civilDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parse effective date %q: %w", s, err)
	}
	*d = civilDate(t)
	return nil
}

// Time returns the date as a time.Time at midnight UTC.
func (d civilDate) Time() time.Time {
	return time.Time(d)
}

// Client fetches exchange-rate tables from the NBP web API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an NBP API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Current fetches the most recent table A publication.
func (c *Client) Current(ctx context.Context) (*Table, error) {
	return c.fetch(ctx, c.baseURL+"/api/exchangerates/tables/A/?format=json")
}

// ByDate fetches the table A publication effective on the given date.
// Returns ErrNoPublication when the API answers 404.
func (c *Client) ByDate(ctx context.Context, date time.Time) (*Table, error) {
	url := fmt.Sprintf("%s/api/exchangerates/tables/A/%s/?format=json", c.baseURL, date.Format("2006-01-02"))
	return c.fetch(ctx, url)
}

func (c *Client) fetch(ctx context.Context, url string) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build nbp request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nbp request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoPublication
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nbp responded %d: %s", resp.StatusCode, body)
	}

	var tables []Table
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return nil, fmt.Errorf("decode nbp response: %w", err)
	}
	if len(tables) == 0 {
		return nil, ErrNoPublication
	}
	return &tables[0], nil
}
