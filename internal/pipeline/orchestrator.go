package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"airlog/internal/archive"
	"airlog/internal/catalog"
	"airlog/internal/config"
	"airlog/internal/logging"
	"airlog/internal/match"
	"airlog/internal/notifications"
	"airlog/internal/playlog"
	"airlog/internal/research"
	"airlog/internal/runlog"
	"airlog/internal/scrape"
)

// duplicateStreakLimit is the number of consecutive playlist duplicates that
// ends a run early. Entries are processed newest first, so a streak of known
// tracks means the rest of the page was already seen.
const duplicateStreakLimit = 5

// Catalog is the slice of the catalog client the orchestrator depends on.
type Catalog interface {
	SearchTracks(ctx context.Context, entry playlog.Entry) ([]match.Candidate, error)
	ArtistGenres(ctx context.Context, artistID string) ([]string, error)
	GetOrCreate(ctx context.Context, name string) (string, error)
	LoadCache(ctx context.Context, playlistID string) error
	IsDuplicate(ctx context.Context, playlistID, trackID string) (bool, error)
	AddTrack(ctx context.Context, playlistID, trackID string) error
	ClearCache(playlistIDs ...string)
	CachedSize(playlistID string) int
	CanMutate() bool
}

var _ Catalog = (*catalog.Client)(nil)

// Archiver is the daily record surface the orchestrator depends on. All
// methods are mandatory.
type Archiver interface {
	Archive(outcome playlog.Outcome) (bool, error)
	WasArchived(entry playlog.Entry, ref time.Time) (bool, error)
	FinalizeDailyStats(day time.Time) error
	TrackRefs(day time.Time) ([]string, error)
	FilePath(day time.Time) string
	ResetWindow()
}

var _ Archiver = (*archive.Store)(nil)

// Deps bundles the orchestrator's collaborators. Runs, Notifier, and
// Research are optional.
type Deps struct {
	Source   scrape.Source
	Catalog  Catalog
	Archiver Archiver
	Runs     *runlog.Store
	Notifier notifications.Service
	Research *research.Runner
	Logger   *slog.Logger
}

// Orchestrator drives the ingest, match, reconcile, record cycle.
type Orchestrator struct {
	cfg      *config.Config
	source   scrape.Source
	catalog  Catalog
	archiver Archiver
	runs     *runlog.Store
	notifier notifications.Service
	research *research.Runner
	logger   *slog.Logger
	now      func() time.Time

	trigger chan struct{}
	lastDay time.Time
}

func New(cfg *config.Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:      cfg,
		source:   deps.Source,
		catalog:  deps.Catalog,
		archiver: deps.Archiver,
		runs:     deps.Runs,
		notifier: notifier,
		research: deps.Research,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
}

type pendingAdd struct {
	trackID string
	sortKey time.Time
}

// Run executes one full pipeline cycle. Errors local to one entry never
// abort the run; only failures that would corrupt shared state do.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (runlog.Summary, error) {
	start := o.now()
	var runID string
	if o.runs != nil {
		id, err := o.runs.RecordStart(ctx, trigger)
		if err != nil {
			o.logger.Warn("run history unavailable", logging.Error(err))
		} else {
			runID = id
		}
	}
	logger := o.logger
	if runID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, runID))
	}

	summary, err := o.runOnce(ctx, logger)

	if o.runs != nil && runID != "" {
		if ferr := o.runs.RecordFinish(ctx, runID, summary, err); ferr != nil {
			logger.Warn("record run finish", logging.Error(ferr))
		}
	}
	if err != nil {
		if nerr := o.notifier.NotifyRunFailed(ctx, err); nerr != nil {
			logger.Warn("notify run failure", logging.Error(nerr))
		}
		return summary, err
	}
	if nerr := o.notifier.NotifyRunCompleted(ctx, summary, o.now().Sub(start)); nerr != nil {
		logger.Warn("notify run completion", logging.Error(nerr))
	}
	o.handleDayRollover(ctx)
	return summary, nil
}

func (o *Orchestrator) runOnce(ctx context.Context, logger *slog.Logger) (runlog.Summary, error) {
	var summary runlog.Summary

	entries, err := o.source.Fetch(ctx)
	if err != nil {
		return summary, err
	}
	now := o.now()
	// Newest first: continuous mode detects "nothing new" quickly via the
	// duplicate streak.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortKey(now).After(entries[j].SortKey(now))
	})
	summary.Entries = len(entries)

	playlistID, err := o.resolveTarget(ctx, now)
	if err != nil {
		return summary, err
	}

	o.catalog.ClearCache(playlistID)
	if err := o.catalog.LoadCache(ctx, playlistID); err != nil {
		return summary, err
	}
	o.archiver.ResetWindow()
	baseline := o.catalog.CachedSize(playlistID)

	var (
		pending      []pendingAdd
		streak       int
		archiveDupes int
	)
	for _, entry := range entries {
		recorded, err := o.archiver.WasArchived(entry, now)
		if err != nil {
			logger.Warn("archive check failed",
				logging.String(logging.FieldEntry, entryLabel(entry)),
				logging.Error(err))
		}
		if recorded {
			archiveDupes++
			continue
		}

		outcome, isMember, add := o.evaluate(ctx, logger, entry, playlistID, now)
		wrote, err := o.archiver.Archive(outcome)
		if err != nil {
			logger.Warn("archive write failed",
				logging.String(logging.FieldEntry, entryLabel(entry)),
				logging.Error(err))
		} else if wrote {
			summary.Archived++
		}

		switch outcome.Status {
		case playlog.StatusFound:
			summary.Found++
			if isMember {
				streak++
				if streak >= duplicateStreakLimit {
					summary.StoppedEarly = true
					logger.Info("stopping run after consecutive playlist duplicates",
						logging.Int("streak", streak))
				}
			} else {
				streak = 0
				if add != nil {
					pending = append(pending, *add)
				}
			}
		case playlog.StatusNotFound:
			summary.NotFound++
			streak = 0
		default:
			streak = 0
		}
		if summary.StoppedEarly {
			break
		}
	}

	if len(pending) > 0 {
		added, err := o.applyPending(ctx, logger, playlistID, pending)
		if err != nil {
			return summary, err
		}
		summary.Added = added
		if baseline >= 0 {
			// Remote truth beats the optimistic count when another writer
			// raced this run.
			o.catalog.ClearCache(playlistID)
			if err := o.catalog.LoadCache(ctx, playlistID); err == nil {
				if size := o.catalog.CachedSize(playlistID); size >= 0 {
					summary.Added = max(size-baseline, 0)
				}
			}
		}
	}

	today := playlog.DayOf(now)
	if err := o.archiver.FinalizeDailyStats(today); err != nil {
		logger.Warn("finalize daily stats", logging.Error(err))
	}
	if err := o.rebuildSnapshot(ctx, today.AddDate(0, 0, -1)); err != nil {
		logger.Warn("rebuild yesterday snapshot", logging.Error(err))
	}

	logger.Info("run complete", logging.Args(
		logging.Int("entries", summary.Entries),
		logging.Int("archived", summary.Archived),
		logging.Int("found", summary.Found),
		logging.Int("not_found", summary.NotFound),
		logging.Int("added", summary.Added),
		logging.Int("already_recorded", archiveDupes),
		logging.Bool("stopped_early", summary.StoppedEarly))...)
	return summary, nil
}

func entryLabel(entry playlog.Entry) string {
	return entry.Artist + " - " + entry.Title
}

// evaluate matches one entry against the catalog. It returns the outcome to
// record, whether the matched track is already a playlist member, and the
// deferred addition when one should be queued.
func (o *Orchestrator) evaluate(ctx context.Context, logger *slog.Logger, entry playlog.Entry, playlistID string, now time.Time) (playlog.Outcome, bool, *pendingAdd) {
	outcome := playlog.Outcome{Entry: entry, RecordedAt: now}

	candidates, err := o.catalog.SearchTracks(ctx, entry)
	if err != nil {
		logger.Warn("catalog search failed",
			logging.String(logging.FieldEntry, entryLabel(entry)),
			logging.Error(err))
		outcome.Status = playlog.StatusUnknown
		return outcome, false, nil
	}

	top := match.Top(entry, candidates)
	if top == nil {
		outcome.Status = playlog.StatusNotFound
		return outcome, false, nil
	}
	outcome.Confidence = top.Confidence
	if top.Confidence < o.threshold() {
		outcome.Status = playlog.StatusLowConfidence
		return outcome, false, nil
	}

	outcome.Status = playlog.StatusFound
	outcome.TrackID = top.Candidate.ID
	outcome.TrackURL = top.Candidate.URL
	if outcome.TrackURL == "" {
		outcome.TrackURL = catalog.TrackURL(top.Candidate.ID)
	}
	if top.Candidate.ArtistID != "" {
		if genres, err := o.catalog.ArtistGenres(ctx, top.Candidate.ArtistID); err == nil {
			outcome.Genres = genres
		}
	}

	isMember, err := o.catalog.IsDuplicate(ctx, playlistID, top.Candidate.ID)
	if err != nil {
		logger.Warn("membership check failed",
			logging.String("track", top.Candidate.ID),
			logging.Error(err))
		outcome.Status = playlog.StatusUnknown
		return outcome, false, nil
	}
	if isMember {
		return outcome, true, nil
	}
	return outcome, false, &pendingAdd{trackID: top.Candidate.ID, sortKey: entry.SortKey(now)}
}

// applyPending adds buffered tracks in time order, re-checking membership
// immediately before each add against a freshly loaded cache.
func (o *Orchestrator) applyPending(ctx context.Context, logger *slog.Logger, playlistID string, pending []pendingAdd) (int, error) {
	o.catalog.ClearCache(playlistID)
	if err := o.catalog.LoadCache(ctx, playlistID); err != nil {
		return 0, err
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].sortKey.Before(pending[j].sortKey)
	})

	added := 0
	for _, p := range pending {
		dup, err := o.catalog.IsDuplicate(ctx, playlistID, p.trackID)
		if err != nil {
			logger.Warn("membership re-check failed",
				logging.String("track", p.trackID), logging.Error(err))
			continue
		}
		if dup {
			continue
		}
		if err := o.catalog.AddTrack(ctx, playlistID, p.trackID); err != nil {
			logger.Warn("playlist add failed",
				logging.String("track", p.trackID), logging.Error(err))
			continue
		}
		added++
	}
	return added, nil
}

func (o *Orchestrator) resolveTarget(ctx context.Context, now time.Time) (string, error) {
	if id := o.cfg.Spotify.PlaylistID; id != "" {
		return id, nil
	}
	name := o.snapshotName(playlog.DayOf(now))
	return o.catalog.GetOrCreate(ctx, name)
}

func (o *Orchestrator) snapshotName(day time.Time) string {
	return o.cfg.Spotify.SnapshotPrefix + " " + day.Format("January 2, 2006")
}

func (o *Orchestrator) threshold() float64 {
	if t := o.cfg.Matcher.ConfidenceThreshold; t > 0 {
		return t
	}
	return match.DefaultThreshold
}

// handleDayRollover hands the previous day's record to the research command
// exactly once per calendar-day change.
func (o *Orchestrator) handleDayRollover(ctx context.Context) {
	today := playlog.DayOf(o.now())
	if !o.lastDay.IsZero() && today.After(o.lastDay) {
		path := o.archiver.FilePath(o.lastDay)
		if err := o.archiver.FinalizeDailyStats(o.lastDay); err != nil {
			o.logger.Warn("finalize rolled-over day", logging.Error(err))
		}
		if err := o.research.Handoff(ctx, path); err != nil {
			o.logger.Warn("research hand-off failed", logging.Error(err))
		}
		if err := o.notifier.NotifyDayCompleted(ctx, o.lastDay, path); err != nil {
			o.logger.Warn("notify day completion", logging.Error(err))
		}
	}
	o.lastDay = today
}
