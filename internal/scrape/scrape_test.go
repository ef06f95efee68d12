package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airlog/internal/logging"
)

const samplePage = `<!doctype html>
<html><body>
<div class="playlist-show">
  <h3 class="show-name">Morning Set</h3>
  <span class="host-name">DJ Test</span>
  <table><tbody>
    <tr>
      <td class="time">3:05 PM</td>
      <td class="artist">The Meters</td>
      <td class="song">Cissy Strut</td>
      <td class="album">The Meters</td>
      <td class="date">August 30</td>
    </tr>
    <tr>
      <td class="time"></td>
      <td class="artist"> Kermit   Ruffins </td>
      <td class="song">Skokiaan</td>
      <td class="album"></td>
      <td class="date"></td>
    </tr>
    <tr>
      <td class="time">4:00 PM</td>
      <td class="artist"></td>
      <td class="song"></td>
      <td class="album"></td>
      <td class="date"></td>
    </tr>
  </tbody></table>
</div>
<div class="playlist-show">
  <h3 class="show-name">Night Owls</h3>
  <span class="host-name">DJ Night</span>
  <table><tbody>
    <tr>
      <td class="time">11:30 PM</td>
      <td class="artist">Professor Longhair</td>
      <td class="song">Tipitina</td>
      <td class="album"></td>
      <td class="date">August 29</td>
    </tr>
  </tbody></table>
</div>
</body></html>`

func TestParseExtractsEntriesWithShowContext(t *testing.T) {
	captured := time.Date(2026, time.August, 30, 15, 30, 0, 0, time.Local)
	entries, err := parse(strings.NewReader(samplePage), captured)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (empty row skipped), got %d", len(entries))
	}

	first := entries[0]
	if first.Artist != "The Meters" || first.Title != "Cissy Strut" ||
		first.PlayedTime != "3:05 PM" || first.PlayedDate != "August 30" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Show != "Morning Set" || first.Host != "DJ Test" {
		t.Fatalf("show context not attached: %+v", first)
	}
	if !first.CapturedAt.Equal(captured) {
		t.Fatalf("captured time not set: %v", first.CapturedAt)
	}

	if entries[1].Artist != "Kermit Ruffins" {
		t.Fatalf("whitespace not collapsed: %q", entries[1].Artist)
	}
	if entries[2].Show != "Night Owls" || entries[2].Host != "DJ Night" {
		t.Fatalf("second show context wrong: %+v", entries[2])
	}
}

func TestFetchAgainstTestServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	source := NewWWOZ(server.URL, 5*time.Second, logging.NewNop())
	entries, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := NewWWOZ(server.URL, 5*time.Second, logging.NewNop())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
