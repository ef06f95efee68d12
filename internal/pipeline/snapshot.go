package pipeline

import (
	"context"
	"time"

	"airlog/internal/logging"
	"airlog/internal/playlog"
	"airlog/internal/services"
)

// Snapshot rebuilds the dated playlist for one day from that day's record
// file. Idempotent: only missing tracks are added.
func (o *Orchestrator) Snapshot(ctx context.Context, day time.Time) error {
	return o.rebuildSnapshot(ctx, playlog.DayOf(day))
}

// Backfill rebuilds snapshots for the given number of days ending yesterday.
// Individual day failures are logged and do not stop the sweep.
func (o *Orchestrator) Backfill(ctx context.Context, days int) error {
	if days <= 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "backfill", "days must be positive", nil)
	}
	yesterday := playlog.DayOf(o.now()).AddDate(0, 0, -1)
	var lastErr error
	for i := 0; i < days; i++ {
		day := yesterday.AddDate(0, 0, -i)
		if err := o.rebuildSnapshot(ctx, day); err != nil {
			o.logger.Warn("snapshot rebuild failed",
				logging.String("day", day.Format("2006-01-02")),
				logging.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

func (o *Orchestrator) rebuildSnapshot(ctx context.Context, day time.Time) error {
	refs, err := o.archiver.TrackRefs(day)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	if !o.catalog.CanMutate() {
		o.logger.Debug("skipping snapshot rebuild in read-only mode",
			logging.String("day", day.Format("2006-01-02")))
		return nil
	}

	playlistID, err := o.catalog.GetOrCreate(ctx, o.snapshotName(day))
	if err != nil {
		return err
	}
	o.catalog.ClearCache(playlistID)
	if err := o.catalog.LoadCache(ctx, playlistID); err != nil {
		return err
	}

	added := 0
	for _, trackID := range refs {
		dup, err := o.catalog.IsDuplicate(ctx, playlistID, trackID)
		if err != nil {
			o.logger.Warn("snapshot membership check failed",
				logging.String("track", trackID), logging.Error(err))
			continue
		}
		if dup {
			continue
		}
		if err := o.catalog.AddTrack(ctx, playlistID, trackID); err != nil {
			o.logger.Warn("snapshot add failed",
				logging.String("track", trackID), logging.Error(err))
			continue
		}
		added++
	}
	if added > 0 {
		o.logger.Info("snapshot rebuilt",
			logging.String("day", day.Format("2006-01-02")),
			logging.Int("tracks", len(refs)),
			logging.Int("added", added))
	}
	return nil
}
