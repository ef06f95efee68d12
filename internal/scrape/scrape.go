// Package scrape pulls raw play entries from the station's public playlist
// page. The parser is deliberately tolerant: missing cells produce partial
// entries rather than errors, and malformed rows are skipped.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"airlog/internal/logging"
	"airlog/internal/playlog"
	"airlog/internal/services"
)

const userAgent = "airlog/1.0 (+https://github.com/airlog/airlog)"

// Source produces one batch of raw play entries per call, in page order.
type Source interface {
	Fetch(ctx context.Context) ([]playlog.Entry, error)
}

// WWOZ scrapes the station's playlist page over HTTP.
type WWOZ struct {
	url    string
	client *retryablehttp.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewWWOZ(url string, timeout time.Duration, logger *slog.Logger) *WWOZ {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	return &WWOZ{
		url:    url,
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, "scrape")),
		now:    time.Now,
	}
}

func (w *WWOZ) Fetch(ctx context.Context) ([]playlog.Entry, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", "build request", w.url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scrape", "fetch playlist page", w.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "scrape", "fetch playlist page",
			fmt.Sprintf("%s returned %d", w.url, resp.StatusCode), nil)
	}

	entries, err := parse(resp.Body, w.now())
	if err != nil {
		return nil, err
	}
	w.logger.Debug("scraped playlist page",
		logging.String("url", w.url),
		logging.Int("entries", len(entries)))
	return entries, nil
}

// parse extracts entries from the playlist page markup. Rows are grouped
// under show blocks carrying the show name and host.
func parse(r io.Reader, capturedAt time.Time) ([]playlog.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, services.Wrap(services.ErrFormat, "scrape", "parse playlist page", "", err)
	}

	var entries []playlog.Entry
	doc.Find("div.playlist-show").Each(func(_ int, show *goquery.Selection) {
		showName := text(show.Find("h3.show-name").First())
		hostName := text(show.Find("span.host-name").First())
		show.Find("table tbody tr").Each(func(_ int, rowSel *goquery.Selection) {
			entry := playlog.Entry{
				Artist:     text(rowSel.Find("td.artist")),
				Title:      text(rowSel.Find("td.song")),
				Album:      text(rowSel.Find("td.album")),
				PlayedDate: text(rowSel.Find("td.date")),
				PlayedTime: text(rowSel.Find("td.time")),
				Show:       showName,
				Host:       hostName,
				CapturedAt: capturedAt,
			}
			if entry.Artist == "" && entry.Title == "" {
				return
			}
			entries = append(entries, entry)
		})
	})
	return entries, nil
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
