package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"

	"airlog/internal/logging"
	"airlog/internal/playlog"
	"airlog/internal/services"
	"airlog/internal/testsupport"
)

type fakeAPI struct {
	playlists     []spotify.SimplePlaylist
	items         map[string][]spotify.PlaylistItem
	searchTracks  []spotify.FullTrack
	artistGenres  map[string][]string
	created       []string
	added         map[string][]string
	removed       map[string][]string
	loadCacheHits int
	searchErr     error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:        make(map[string][]spotify.PlaylistItem),
		artistGenres: make(map[string][]string),
		added:        make(map[string][]string),
		removed:      make(map[string][]string),
	}
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	return &spotify.PrivateUser{User: spotify.User{ID: "owner"}}, nil
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &spotify.SearchResult{Tracks: &spotify.FullTrackPage{Tracks: f.searchTracks}}, nil
}

func (f *fakeAPI) CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error) {
	return &spotify.SimplePlaylistPage{Playlists: f.playlists}, nil
}

func (f *fakeAPI) CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public, collaborative bool) (*spotify.FullPlaylist, error) {
	f.created = append(f.created, playlistName)
	id := fmt.Sprintf("created-%d", len(f.created))
	return &spotify.FullPlaylist{SimplePlaylist: spotify.SimplePlaylist{ID: spotify.ID(id), Name: playlistName}}, nil
}

func (f *fakeAPI) GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error) {
	f.loadCacheHits++
	return &spotify.PlaylistItemPage{Items: f.items[string(playlistID)]}, nil
}

func (f *fakeAPI) AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error) {
	for _, id := range trackIDs {
		f.added[string(playlistID)] = append(f.added[string(playlistID)], string(id))
	}
	return "snapshot", nil
}

func (f *fakeAPI) RemoveTracksFromPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error) {
	for _, id := range trackIDs {
		f.removed[string(playlistID)] = append(f.removed[string(playlistID)], string(id))
	}
	return "snapshot", nil
}

func (f *fakeAPI) GetArtist(ctx context.Context, id spotify.ID) (*spotify.FullArtist, error) {
	genres, ok := f.artistGenres[string(id)]
	if !ok {
		return nil, errors.New("no such artist")
	}
	return &spotify.FullArtist{SimpleArtist: spotify.SimpleArtist{ID: id}, Genres: genres}, nil
}

func playlistItem(trackID, name string, addedAt time.Time, duration time.Duration) spotify.PlaylistItem {
	track := &spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{
		ID:       spotify.ID(trackID),
		Name:     name,
		URI:      spotify.URI("spotify:track:" + trackID),
		Duration: spotify.Numeric(duration / time.Millisecond),
	}}
	return spotify.PlaylistItem{
		AddedAt: addedAt.Format(spotify.TimestampLayout),
		Track:   spotify.PlaylistItemTrack{Track: track},
	}
}

func newTestClient(api webAPI, readOnly bool) *Client {
	return &Client{
		api:        api,
		logger:     logging.NewNop(),
		readOnly:   readOnly,
		membership: make(map[string]map[string]struct{}),
	}
}

func TestIsDuplicateLazyLoadsOnce(t *testing.T) {
	api := newFakeAPI()
	api.items["pl"] = []spotify.PlaylistItem{playlistItem("t1", "one", time.Now(), 3*time.Minute)}
	client := newTestClient(api, false)

	dup, err := client.IsDuplicate(context.Background(), "pl", "t1")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Fatal("expected t1 to be a duplicate")
	}
	dup, err = client.IsDuplicate(context.Background(), "pl", "t2")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Fatal("t2 must not be a duplicate")
	}
	if api.loadCacheHits != 1 {
		t.Fatalf("expected a single lazy load, got %d fetches", api.loadCacheHits)
	}
}

func TestAddTrackOptimisticallyUpdatesCache(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(api, false)
	ctx := context.Background()

	if err := client.LoadCache(ctx, "pl"); err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	fetches := api.loadCacheHits

	if err := client.AddTrack(ctx, "pl", "t9"); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	dup, err := client.IsDuplicate(ctx, "pl", "t9")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Fatal("added track must be cached as member")
	}
	if api.loadCacheHits != fetches {
		t.Fatal("AddTrack must not re-fetch the playlist")
	}
	if got := api.added["pl"]; len(got) != 1 || got[0] != "t9" {
		t.Fatalf("unexpected remote additions: %v", got)
	}
}

func TestClearCacheForcesReload(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(api, false)
	ctx := context.Background()

	if err := client.LoadCache(ctx, "pl"); err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	client.ClearCache("pl")
	if client.CachedSize("pl") != -1 {
		t.Fatal("expected cache entry to be dropped")
	}
	if _, err := client.IsDuplicate(ctx, "pl", "t1"); err != nil {
		t.Fatalf("IsDuplicate after clear: %v", err)
	}
	if api.loadCacheHits != 2 {
		t.Fatalf("expected reload after clear, got %d fetches", api.loadCacheHits)
	}
}

func TestGetOrCreateFindsCaseInsensitive(t *testing.T) {
	api := newFakeAPI()
	api.playlists = []spotify.SimplePlaylist{
		{ID: "a", Name: "Other"},
		{ID: "b", Name: "wwoz august 30, 2026"},
	}
	client := newTestClient(api, false)

	id, err := client.GetOrCreate(context.Background(), "WWOZ August 30, 2026")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if id != "b" {
		t.Fatalf("expected existing playlist, got %q", id)
	}
	if len(api.created) != 0 {
		t.Fatal("must not create when a match exists")
	}
}

func TestGetOrCreateCreatesWhenAbsent(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(api, false)

	id, err := client.GetOrCreate(context.Background(), "WWOZ August 31, 2026")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if id == "" || len(api.created) != 1 {
		t.Fatalf("expected creation, got id=%q created=%v", id, api.created)
	}
}

func TestMutationsRejectedInReadOnlyMode(t *testing.T) {
	client := newTestClient(newFakeAPI(), true)

	err := client.AddTrack(context.Background(), "pl", "t1")
	if err == nil {
		t.Fatal("expected read-only rejection")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if _, err := client.GetOrCreate(context.Background(), "Missing"); err == nil {
		t.Fatal("expected read-only rejection for create path")
	}
}

func TestAuthModeFollowsRefreshToken(t *testing.T) {
	ctx := context.Background()
	readOnly := New(ctx, testsupport.NewConfig(t), logging.NewNop())
	if readOnly.CanMutate() {
		t.Fatal("client-credentials mode must be read-only")
	}
	mutating := New(ctx, testsupport.NewConfig(t, testsupport.WithRefreshToken("refresh-token")), logging.NewNop())
	if !mutating.CanMutate() {
		t.Fatal("refresh-token mode must allow playlist mutations")
	}
}

func TestSearchTracksBuildsCandidates(t *testing.T) {
	api := newFakeAPI()
	api.searchTracks = []spotify.FullTrack{{
		SimpleTrack: spotify.SimpleTrack{
			ID:       "t1",
			Name:     "Cissy Strut",
			Artists:  []spotify.SimpleArtist{{ID: "a1", Name: "The Meters"}},
			Duration: spotify.Numeric(180000),
			ExternalURLs: map[string]string{
				"spotify": "https://open.spotify.com/track/t1",
			},
		},
	}}
	client := newTestClient(api, false)

	entry := playlog.Entry{Artist: "The Meters", Title: "Cissy Strut", CapturedAt: time.Now()}
	candidates, err := client.SearchTracks(context.Background(), entry)
	if err != nil {
		t.Fatalf("SearchTracks: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.ID != "t1" || got.ArtistID != "a1" || got.Duration != 3*time.Minute {
		t.Fatalf("unexpected candidate: %+v", got)
	}
}

func TestRemoveAddedBefore(t *testing.T) {
	api := newFakeAPI()
	now := time.Now().UTC()
	api.items["pl"] = []spotify.PlaylistItem{
		playlistItem("old", "old", now.AddDate(0, 0, -10), 3*time.Minute),
		playlistItem("new", "new", now, 3*time.Minute),
	}
	client := newTestClient(api, false)

	removed, err := client.RemoveAddedBefore(context.Background(), "pl", now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("RemoveAddedBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if got := api.removed["pl"]; len(got) != 1 || got[0] != "old" {
		t.Fatalf("unexpected removals: %v", got)
	}
}

func TestCopySkipsDuplicates(t *testing.T) {
	api := newFakeAPI()
	now := time.Now().UTC()
	api.items["src"] = []spotify.PlaylistItem{
		playlistItem("t1", "one", now, 3*time.Minute),
		playlistItem("t2", "two", now, 3*time.Minute),
	}
	api.items["dst"] = []spotify.PlaylistItem{
		playlistItem("t1", "one", now, 3*time.Minute),
	}
	client := newTestClient(api, false)

	added, err := client.Copy(context.Background(), "src", "dst")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 addition, got %d", added)
	}
	if got := api.added["dst"]; len(got) != 1 || got[0] != "t2" {
		t.Fatalf("unexpected additions: %v", got)
	}
}
