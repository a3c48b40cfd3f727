// Package nces loads the NCES Common Core of Data school directory, either
// from the Urban Institute Education Data API or from a previously cached
// CSV. The directory is an optional enrichment source: every failure path
// degrades to fewer reference entries, never to a failed pipeline run.
package nces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wbbdata/schoolmap/schoolmap"
)

// stateFIPS maps FIPS codes to postal abbreviations for all states and DC.
var stateFIPS = map[int]string{
	1: "AL", 2: "AK", 4: "AZ", 5: "AR", 6: "CA", 8: "CO", 9: "CT", 10: "DE",
	11: "DC", 12: "FL", 13: "GA", 15: "HI", 16: "ID", 17: "IL", 18: "IN",
	19: "IA", 20: "KS", 21: "KY", 22: "LA", 23: "ME", 24: "MD", 25: "MA",
	26: "MI", 27: "MN", 28: "MS", 29: "MO", 30: "MT", 31: "NE", 32: "NV",
	33: "NH", 34: "NJ", 35: "NM", 36: "NY", 37: "NC", 38: "ND", 39: "OH",
	40: "OK", 41: "OR", 42: "PA", 44: "RI", 45: "SC", 46: "SD", 47: "TN",
	48: "TX", 49: "UT", 50: "VT", 51: "VA", 53: "WA", 54: "WV", 55: "WI",
	56: "WY",
}

// Client fetches the CCD school directory year by year, state by state. The
// API is rate limited on their side, so requests go through a limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	year       int
	logger     zerolog.Logger
}

// NewClient builds a directory client from the reference configuration.
func NewClient(cfg schoolmap.ReferenceConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		baseURL:    cfg.BaseURL,
		year:       cfg.Year,
		logger:     logger,
	}
}

// directoryPage is one page of the Urban Institute API response.
type directoryPage struct {
	Results []directoryRow `json:"results"`
	Next    string         `json:"next"`
}

// directoryRow mirrors the CCD directory fields the engine needs. Numeric
// fields arrive as JSON numbers or null depending on the year, hence the
// pointers.
type directoryRow struct {
	NCESSCH       string `json:"ncessch"`
	SchoolName    string `json:"school_name"`
	CityLocation  string `json:"city_location"`
	StateLocation string `json:"state_location"`
	SchoolLevel   *int   `json:"school_level"`
	HighestGrade  *int   `json:"highest_grade"`
	SchoolStatus  *int   `json:"school_status"`
}

// FetchDirectory downloads the directory for every state and returns the
// entries that look like open high schools. Individual state failures are
// logged and skipped; only context cancellation aborts the download. The
// returned slice holds whatever was collected before any error.
func (c *Client) FetchDirectory(ctx context.Context) ([]schoolmap.ReferenceEntry, error) {
	fipsCodes := make([]int, 0, len(stateFIPS))
	for fips := range stateFIPS {
		fipsCodes = append(fipsCodes, fips)
	}
	sort.Ints(fipsCodes)

	var entries []schoolmap.ReferenceEntry
	for _, fips := range fipsCodes {
		stateEntries, err := c.fetchState(ctx, fips)
		if err != nil {
			if ctx.Err() != nil {
				return entries, ctx.Err()
			}
			c.logger.Warn().
				Str("state", stateFIPS[fips]).
				Err(err).
				Msg("state directory download failed, skipping")
			continue
		}
		entries = append(entries, stateEntries...)
		c.logger.Debug().
			Str("state", stateFIPS[fips]).
			Int("schools", len(stateEntries)).
			Msg("state directory downloaded")
	}
	c.logger.Info().Int("schools", len(entries)).Int("year", c.year).Msg("nces directory downloaded")
	return entries, nil
}

func (c *Client) fetchState(ctx context.Context, fips int) ([]schoolmap.ReferenceEntry, error) {
	pageURL := fmt.Sprintf("%s/%d/?fips=%s", c.baseURL, c.year, url.QueryEscape(strconv.Itoa(fips)))
	var entries []schoolmap.ReferenceEntry
	for pageURL != "" {
		if err := c.limiter.Wait(ctx); err != nil {
			return entries, err
		}
		page, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return entries, err
		}
		for _, row := range page.Results {
			if !isOpenHighSchool(row) {
				continue
			}
			entries = append(entries, schoolmap.ReferenceEntry{
				NCESID: row.NCESSCH,
				Name:   row.SchoolName,
				City:   row.CityLocation,
				State:  row.StateLocation,
				Key:    schoolmap.Normalize(row.SchoolName),
			})
		}
		pageURL = page.Next
	}
	return entries, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (directoryPage, error) {
	var page directoryPage
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, fmt.Errorf("build directory request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page, fmt.Errorf("fetch directory page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("directory page: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("decode directory page: %w", err)
	}
	return page, nil
}

// isOpenHighSchool applies the CCD filter: open schools at level 3 (high) or
// 4 (other), or any school whose highest grade reaches 9.
func isOpenHighSchool(row directoryRow) bool {
	if row.SchoolName == "" {
		return false
	}
	if row.SchoolStatus != nil && *row.SchoolStatus != 1 {
		return false
	}
	if row.SchoolLevel != nil && (*row.SchoolLevel == 3 || *row.SchoolLevel == 4) {
		return true
	}
	return row.HighestGrade != nil && *row.HighestGrade >= 9
}
