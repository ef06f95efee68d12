package archive

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"airlog/internal/logging"
	"airlog/internal/playlog"
	"airlog/internal/services"
)

// Store persists match outcomes into per-day markdown record files. Each
// (artist, title) key is recorded at most once per calendar day; rows within
// a day are kept sorted by time of day. The store assumes it is the only
// active writer; concurrent external edits of a record file are not detected.
type Store struct {
	root        string
	sourceURL   string
	dedupWindow time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	recent map[string]time.Time
}

// New builds a store rooted at archiveDir. A configured path that already
// points inside a year or year/month subdirectory is normalized back to the
// archive base so day files always land under <base>/<YYYY>/<MM>/.
func New(archiveDir, sourceURL string, dedupWindow time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		root:        resolveRoot(archiveDir),
		sourceURL:   sourceURL,
		dedupWindow: dedupWindow,
		logger:      logger.With(logging.String(logging.FieldComponent, "archive")),
		recent:      make(map[string]time.Time),
	}
}

var (
	yearSegment  = regexp.MustCompile(`^\d{4}$`)
	monthSegment = regexp.MustCompile(`^\d{2}$`)
)

func resolveRoot(dir string) string {
	cleaned := filepath.Clean(dir)
	base := filepath.Base(cleaned)
	if monthSegment.MatchString(base) {
		parent := filepath.Dir(cleaned)
		if yearSegment.MatchString(filepath.Base(parent)) {
			return filepath.Dir(parent)
		}
	}
	if yearSegment.MatchString(base) {
		return filepath.Dir(cleaned)
	}
	return cleaned
}

// FilePath resolves the record file for a calendar day. The current display
// name is preferred; two legacy names are honored when a file by that name
// already exists.
func (s *Store) FilePath(day time.Time) string {
	dir := filepath.Join(s.root, day.Format("2006"), day.Format("01"))
	candidates := []string{
		day.Format("January 2, 2006") + ".md",
		day.Format("2006-01-02") + ".md",
		day.Format("01-02-2006") + ".md",
	}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, candidates[0])
}

// Archive records one outcome into its day's record file. It reports whether
// a row was written: duplicates of an already recorded (artist, title) key,
// either anywhere in the day's table or within the recent-write window, are
// skipped without error.
func (s *Store) Archive(outcome playlog.Outcome) (bool, error) {
	ref := outcome.RecordedAt
	if ref.IsZero() {
		ref = time.Now()
	}
	day := outcome.ResolveDay(ref)
	key := playlog.Key(outcome.Entry.Artist, outcome.Entry.Title)
	if key == "|" {
		return false, services.Wrap(services.ErrFormat, "archive", "archive", "entry has no artist or title", nil)
	}
	windowKey := key + "#" + day.Format("2006-01-02")

	if s.seenRecently(windowKey, ref) {
		s.logger.Debug("skipping recent duplicate",
			logging.String("artist", outcome.Entry.Artist),
			logging.String("title", outcome.Entry.Title))
		return false, nil
	}

	path := s.FilePath(day)
	if err := s.ensureFile(path, day); err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "archive", "archive", path, err)
	}
	doc := string(content)

	if tableHasKey(doc, key) {
		s.markRecent(windowKey, ref)
		s.logger.Debug("already recorded for day",
			logging.String("artist", outcome.Entry.Artist),
			logging.String("title", outcome.Entry.Title),
			logging.String("day", day.Format("2006-01-02")))
		return false, nil
	}

	row := renderRow(outcome)
	updated, ok := insertRowChronological(doc, row)
	if !ok {
		// Malformed table: append rather than fail the run.
		s.logger.Warn("row table not found, appending",
			logging.String("path", path))
		updated = strings.TrimRight(doc, "\n") + "\n" + row + "\n"
	}
	if err := writeFile(path, updated); err != nil {
		return false, err
	}
	s.markRecent(windowKey, ref)
	return true, nil
}

// WasArchived reports whether the entry's (artist, title) key already has a
// row in its resolved day's record file.
func (s *Store) WasArchived(entry playlog.Entry, ref time.Time) (bool, error) {
	day := entry.ResolveDay(ref)
	path := s.FilePath(day)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "archive", "check archived", path, err)
	}
	return tableHasKey(string(content), playlog.Key(entry.Artist, entry.Title)), nil
}

// TrackRefs extracts the catalog track ids referenced by a day's rows, in
// file order. Rows without a link contribute nothing.
func (s *Store) TrackRefs(day time.Time) ([]string, error) {
	path := s.FilePath(day)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "archive", "track refs", path, err)
	}
	var refs []string
	for _, row := range tableRows(string(content)) {
		if id := trackIDFromLink(row.cells[colLink]); id != "" {
			refs = append(refs, id)
		}
	}
	return refs, nil
}

// ResetWindow clears the recent-write dedup window. Called at the start of
// each run so the window only suppresses duplicates within a single run.
func (s *Store) ResetWindow() {
	s.mu.Lock()
	s.recent = make(map[string]time.Time)
	s.mu.Unlock()
}

func (s *Store) seenRecently(windowKey string, now time.Time) bool {
	if s.dedupWindow <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.recent[windowKey]
	return ok && now.Sub(last) < s.dedupWindow
}

func (s *Store) markRecent(windowKey string, now time.Time) {
	s.mu.Lock()
	s.recent[windowKey] = now
	s.mu.Unlock()
}

func (s *Store) ensureFile(path string, day time.Time) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "archive", "ensure record", path, err)
	}
	if err := writeFile(path, renderTemplate(day, s.sourceURL)); err != nil {
		return err
	}
	s.logger.Info("created daily record",
		logging.String("path", path),
		logging.String("day", day.Format("2006-01-02")))
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "archive", "write record", path, err)
	}
	return nil
}

func tableHasKey(doc, key string) bool {
	for _, row := range tableRows(doc) {
		if playlog.Key(row.cells[colArtist], row.cells[colTitle]) == key {
			return true
		}
	}
	return false
}

func trackIDFromLink(cell string) string {
	start := strings.Index(cell, "(")
	end := strings.LastIndex(cell, ")")
	if start < 0 || end <= start {
		return ""
	}
	url := cell[start+1 : end]
	idx := strings.LastIndex(url, "/track/")
	if idx < 0 {
		return ""
	}
	id := url[idx+len("/track/"):]
	if q := strings.IndexByte(id, '?'); q >= 0 {
		id = id[:q]
	}
	return id
}
