package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"

	"airlog/internal/logging"
	"airlog/internal/services"
)

// Item is one playlist entry with the metadata aggregate operations need.
type Item struct {
	ID       string
	URI      string
	Name     string
	AddedAt  time.Time
	Duration time.Duration
}

// GetOrCreate finds the owner's playlist with the given name
// (case-insensitive exact match across all pages) or creates it.
func (c *Client) GetOrCreate(ctx context.Context, name string) (string, error) {
	offset := 0
	for {
		page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(50), spotify.Offset(offset))
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "catalog", "list playlists", name, err)
		}
		for _, playlist := range page.Playlists {
			if strings.EqualFold(strings.TrimSpace(playlist.Name), strings.TrimSpace(name)) {
				return string(playlist.ID), nil
			}
		}
		if len(page.Playlists) < 50 {
			break
		}
		offset += 50
	}

	if err := c.mutationGuard("create playlist"); err != nil {
		return "", err
	}
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "catalog", "current user", "", err)
	}
	created, err := c.api.CreatePlaylistForUser(ctx, user.ID, name, "Archived radio plays", false, false)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "catalog", "create playlist", name, err)
	}
	c.logger.Info("playlist created",
		logging.String("playlist", string(created.ID)),
		logging.String("name", name))
	return string(created.ID), nil
}

// Items fetches every playlist entry with metadata, in playlist order.
func (c *Client) Items(ctx context.Context, playlistID string) ([]Item, error) {
	var items []Item
	offset := 0
	for {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageSize), spotify.Offset(offset))
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "catalog", "list items", playlistID, err)
		}
		for _, entry := range page.Items {
			track := entry.Track.Track
			if track == nil {
				continue
			}
			item := Item{
				ID:       string(track.ID),
				URI:      string(track.URI),
				Name:     track.Name,
				Duration: time.Duration(track.Duration) * time.Millisecond,
			}
			if addedAt, err := time.Parse(spotify.TimestampLayout, entry.AddedAt); err == nil {
				item.AddedAt = addedAt
			}
			items = append(items, item)
		}
		if len(page.Items) < pageSize {
			break
		}
		offset += pageSize
	}
	return items, nil
}

// TotalDuration sums the duration of every item in the playlist.
func (c *Client) TotalDuration(ctx context.Context, playlistID string) (time.Duration, error) {
	items, err := c.Items(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	var total time.Duration
	for _, item := range items {
		total += item.Duration
	}
	return total, nil
}

// Copy adds every item of src to dst, skipping tracks dst already contains.
// Returns the number of tracks actually added.
func (c *Client) Copy(ctx context.Context, src, dst string) (int, error) {
	if err := c.mutationGuard("copy playlist"); err != nil {
		return 0, err
	}
	items, err := c.Items(ctx, src)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, item := range items {
		dup, err := c.IsDuplicate(ctx, dst, item.ID)
		if err != nil {
			return added, err
		}
		if dup {
			continue
		}
		if err := c.AddTrack(ctx, dst, item.ID); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// RemoveAddedBefore deletes every item added before the cutoff. Returns the
// number of tracks removed.
func (c *Client) RemoveAddedBefore(ctx context.Context, playlistID string, cutoff time.Time) (int, error) {
	if err := c.mutationGuard("remove items"); err != nil {
		return 0, err
	}
	items, err := c.Items(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	var stale []spotify.ID
	for _, item := range items {
		if !item.AddedAt.IsZero() && item.AddedAt.Before(cutoff) {
			stale = append(stale, spotify.ID(item.ID))
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	for start := 0; start < len(stale); start += pageSize {
		end := min(start+pageSize, len(stale))
		if _, err := c.api.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), stale[start:end]...); err != nil {
			return start, services.Wrap(services.ErrTransient, "catalog", "remove items", playlistID, err)
		}
	}
	c.ClearCache(playlistID)
	return len(stale), nil
}
