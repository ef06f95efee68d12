package catalog

import (
	"context"

	"github.com/zmb3/spotify/v2"

	"airlog/internal/logging"
	"airlog/internal/services"
)

// The membership cache is a point-in-time snapshot of which track ids a
// playlist contains. It is never trusted across runs: callers must
// ClearCache and LoadCache before any check whose correctness depends on
// fresh remote state.

// LoadCache paginates the playlist and replaces its cached id set.
func (c *Client) LoadCache(ctx context.Context, playlistID string) error {
	ids := make(map[string]struct{})
	offset := 0
	for {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageSize), spotify.Offset(offset))
		if err != nil {
			return services.Wrap(services.ErrTransient, "catalog", "load membership", playlistID, err)
		}
		for _, item := range page.Items {
			if item.Track.Track != nil {
				ids[string(item.Track.Track.ID)] = struct{}{}
			}
		}
		if len(page.Items) < pageSize {
			break
		}
		offset += pageSize
	}

	c.mu.Lock()
	c.membership[playlistID] = ids
	c.mu.Unlock()

	c.logger.Debug("membership cache loaded",
		logging.String("playlist", playlistID),
		logging.Int("tracks", len(ids)))
	return nil
}

// IsDuplicate reports whether the playlist already contains the track,
// lazily loading the cache when the playlist has not been seen yet.
func (c *Client) IsDuplicate(ctx context.Context, playlistID, trackID string) (bool, error) {
	c.mu.Lock()
	ids, ok := c.membership[playlistID]
	c.mu.Unlock()

	if !ok {
		if err := c.LoadCache(ctx, playlistID); err != nil {
			return false, err
		}
		c.mu.Lock()
		ids = c.membership[playlistID]
		c.mu.Unlock()
	}
	_, dup := ids[trackID]
	return dup, nil
}

// AddTrack performs the remote addition and optimistically inserts the id
// into the cache without re-fetching.
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID string) error {
	if err := c.mutationGuard("add track"); err != nil {
		return err
	}
	if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID)); err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "add track", trackID, err)
	}

	c.mu.Lock()
	if ids, ok := c.membership[playlistID]; ok {
		ids[trackID] = struct{}{}
	}
	c.mu.Unlock()
	return nil
}

// ClearCache drops cached membership for the given playlists, or all cached
// playlists when none are named.
func (c *Client) ClearCache(playlistIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(playlistIDs) == 0 {
		c.membership = make(map[string]map[string]struct{})
		return
	}
	for _, id := range playlistIDs {
		delete(c.membership, id)
	}
}

// CachedSize returns the number of tracks in the cached snapshot, or -1 when
// the playlist has not been loaded.
func (c *Client) CachedSize(playlistID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.membership[playlistID]
	if !ok {
		return -1
	}
	return len(ids)
}
