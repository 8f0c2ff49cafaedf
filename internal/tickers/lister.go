// Package tickers scrapes and persists the S&P 500 constituent list.
package tickers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSourceURL is the Wikipedia page listing the index constituents.
const DefaultSourceURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// ErrTableNotFound is returned when the page has no constituents table or it has no rows.
var ErrTableNotFound = errors.New("constituents table not found")

// Normalize converts a listed symbol to the provider's naming. Every '.'
// becomes '-' and nothing else changes.
func Normalize(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "-")
}

// Lister scrapes ticker symbols from an HTML constituents table.
type Lister struct {
	SourceURL string
	Client    *http.Client
}

// NewLister creates a Lister with optional proxy support.
func NewLister(sourceURL, proxyURL string) *Lister {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Lister{
		SourceURL: sourceURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Scrape downloads the constituents page and returns the normalized symbols in page order.
func (l *Lister) Scrape(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.SourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch constituents page: status %d, body: %s", resp.StatusCode, string(body))
	}

	return Parse(resp.Body)
}

// Parse extracts the first cell of every data row of the constituents table.
func Parse(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	tbl := doc.Find("table#constituents").First()
	if tbl.Length() == 0 {
		tbl = doc.Find("table.wikitable.sortable").First()
	}
	if tbl.Length() == 0 {
		return nil, ErrTableNotFound
	}

	var symbols []string
	tbl.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return // header row
		}
		raw := strings.TrimSpace(cell.Text())
		sym := Normalize(raw)
		if sym != raw {
			log.Printf("[INFO] ticker replaced to %s", sym)
		}
		symbols = append(symbols, sym)
	})
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrTableNotFound)
	}
	return symbols, nil
}

// SaveSP500Tickers scrapes the current list and persists it, replacing any previous list.
func (l *Lister) SaveSP500Tickers(ctx context.Context, store ListStore) ([]string, error) {
	symbols, err := l.Scrape(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Save(symbols); err != nil {
		return nil, fmt.Errorf("save ticker list: %w", err)
	}
	log.Printf("[INFO] saved %d tickers", len(symbols))
	return symbols, nil
}
