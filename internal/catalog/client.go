package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"airlog/internal/config"
	"airlog/internal/logging"
	"airlog/internal/match"
	"airlog/internal/playlog"
	"airlog/internal/services"
)

// webAPI is the slice of the Spotify Web API the client consumes. It exists
// so tests can substitute a fake; *spotify.Client satisfies it.
type webAPI interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	RemoveTracksFromPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
	GetArtist(ctx context.Context, id spotify.ID) (*spotify.FullArtist, error)
}

var _ webAPI = (*spotify.Client)(nil)

const pageSize = 100

// Client wraps the Spotify Web API with rate limiting, retry, token
// lifecycle, and a per-playlist membership cache.
type Client struct {
	api      webAPI
	logger   *slog.Logger
	readOnly bool

	mu         sync.Mutex
	membership map[string]map[string]struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithAPI substitutes the underlying Web API implementation (used in tests).
func WithAPI(impl webAPI) Option {
	return func(c *Client) {
		c.api = impl
	}
}

// New builds a catalog client from config. With a refresh token the client
// authenticates as the user and may mutate playlists; without one it falls
// back to client-credentials and stays read-only.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		logger:     logging.NewComponentLogger(logger, "catalog"),
		membership: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.api != nil {
		return client
	}

	interval := time.Duration(cfg.Spotify.RequestIntervalMS) * time.Millisecond
	limited := newLimitedTransport(http.DefaultTransport, interval, cfg.Spotify.MaxInFlight)

	var src oauth2.TokenSource
	if cfg.Spotify.RefreshToken != "" {
		conf := &oauth2.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		}
		src = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.Spotify.RefreshToken})
	} else {
		conf := &clientcredentials.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		src = conf.TokenSource(ctx)
		client.readOnly = true
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: newGuardedTokenSource(src),
			Base:   limited,
		},
		Timeout: 60 * time.Second,
	}
	client.api = spotify.New(httpClient)
	return client
}

// CanMutate reports whether the client is authorized for playlist mutations.
func (c *Client) CanMutate() bool {
	return !c.readOnly
}

func (c *Client) mutationGuard(operation string) error {
	if c.readOnly {
		return services.Wrap(services.ErrConfiguration, "catalog", operation, "playlist mutations require spotify.refresh_token", nil)
	}
	return nil
}

// SearchTracks queries the catalog for candidates matching the entry.
// Bracketed qualifiers are stripped from the title for the first attempt and
// the raw title is retried only when the clean query returns nothing.
func (c *Client) SearchTracks(ctx context.Context, entry playlog.Entry) ([]match.Candidate, error) {
	cleanTitle := entry.Title
	if idx := strings.IndexAny(cleanTitle, "(["); idx != -1 {
		cleanTitle = strings.TrimSpace(cleanTitle[:idx])
	}

	candidates, err := c.searchOnce(ctx, entry.Artist+" "+cleanTitle)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 && cleanTitle != entry.Title {
		candidates, err = c.searchOnce(ctx, entry.Artist+" "+entry.Title)
		if err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

func (c *Client) searchOnce(ctx context.Context, query string) ([]match.Candidate, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(10))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "search", query, err)
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}
	candidates := make([]match.Candidate, 0, len(result.Tracks.Tracks))
	for _, track := range result.Tracks.Tracks {
		candidates = append(candidates, candidateFromTrack(track))
	}
	return candidates, nil
}

func candidateFromTrack(track spotify.FullTrack) match.Candidate {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}
	candidate := match.Candidate{
		ID:       string(track.ID),
		Name:     track.Name,
		Artists:  artists,
		Album:    track.Album.Name,
		Duration: time.Duration(track.Duration) * time.Millisecond,
		URL:      track.ExternalURLs["spotify"],
	}
	if len(track.Artists) > 0 {
		candidate.ArtistID = string(track.Artists[0].ID)
	}
	return candidate
}

// ArtistGenres fetches genre tags for the entry's primary matched artist.
// Callers treat failures as non-fatal enrichment misses.
func (c *Client) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	artist, err := c.api.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", "artist genres", artistID, err)
	}
	return artist.Genres, nil
}

// TrackURL returns the canonical open.spotify.com URL for a track id, used
// when the search payload omits an external URL.
func TrackURL(trackID string) string {
	return "https://open.spotify.com/track/" + trackID
}
