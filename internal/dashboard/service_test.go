package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/speeddial/internal/apperr"
	"github.com/starford/speeddial/internal/kvstore"
	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/reorder"
	"github.com/starford/speeddial/internal/state"
)

type event struct{ kind, id string }

type fixture struct {
	svc    *Service
	store  *kvstore.Memory
	events []event
}

func newFixture(t *testing.T, quota int64) *fixture {
	t.Helper()
	f := &fixture{store: kvstore.NewMemory(quota)}
	n := 0
	f.svc = NewService(context.Background(), f.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithNotifier(func(kind, id string) { f.events = append(f.events, event{kind, id}) }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return f
}

func (f *fixture) reload(t *testing.T) state.State {
	t.Helper()
	return state.Load(context.Background(), f.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertDense(t *testing.T, tiles []models.Tile, pageID string) {
	t.Helper()
	if page := reorder.OnPage(tiles, pageID); !reorder.Dense(page) {
		t.Errorf("positions on %s not dense: %+v", pageID, page)
	}
}

func TestCreateTileAppendsAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	tile, err := f.svc.CreateTile(ctx, "home-group", TileInput{URL: "example.com"})
	if err != nil {
		t.Fatalf("CreateTile: %v", err)
	}
	if tile.URL != "https://example.com" {
		t.Errorf("url = %q", tile.URL)
	}
	if tile.Title != "example.com" {
		t.Errorf("title = %q", tile.Title)
	}
	if tile.Position != 4 {
		t.Errorf("position = %d, want 4", tile.Position)
	}
	if tile.ID != "id-1" {
		t.Errorf("id = %q", tile.ID)
	}

	persisted := f.reload(t)
	if persisted.TileIndex(tile.ID) < 0 {
		t.Error("tile not persisted")
	}
	assertDense(t, persisted.Tiles, "home-group")
	if len(f.events) != 1 || f.events[0] != (event{EventTileCreated, "id-1"}) {
		t.Errorf("events = %+v", f.events)
	}
}

func TestCreateTileEmptyPageGetsPositionZero(t *testing.T) {
	f := newFixture(t, 0)
	tile, err := f.svc.CreateTile(context.Background(), "work-group", TileInput{URL: "https://a.io", Title: "A"})
	if err != nil {
		t.Fatalf("CreateTile: %v", err)
	}
	if tile.Position != 0 || tile.Title != "A" {
		t.Errorf("tile = %+v", tile)
	}
}

func TestCreateTileRejectsEmptyURL(t *testing.T) {
	f := newFixture(t, 0)
	before := f.svc.Snapshot(context.Background())

	_, err := f.svc.CreateTile(context.Background(), "home-group", TileInput{URL: "  "})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !reflect.DeepEqual(f.svc.Snapshot(context.Background()), before) {
		t.Error("state changed after rejected create")
	}
	if len(f.events) != 0 {
		t.Errorf("events = %+v", f.events)
	}
}

func TestCreateTileUnknownPage(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.CreateTile(context.Background(), "nope", TileInput{URL: "x.com"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateTileQuotaKeepsMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 64)

	tile, err := f.svc.CreateTile(ctx, "home-group", TileInput{URL: "example.com"})
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	tiles, _ := f.svc.Tiles(ctx, "home-group")
	if len(tiles) != 5 || tiles[4].ID != tile.ID {
		t.Errorf("tile missing from memory after quota failure: %+v", tiles)
	}
	if len(f.events) != 1 {
		t.Errorf("events = %+v, want the change to be published", f.events)
	}
}

func TestUpdateTile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	title, u := "", "news.ycombinator.com"
	got, err := f.svc.UpdateTile(ctx, "t2", TilePatch{URL: &u, Title: &title})
	if err != nil {
		t.Fatalf("UpdateTile: %v", err)
	}
	if got.URL != "https://news.ycombinator.com" || got.Title != "news.ycombinator.com" {
		t.Errorf("tile = %+v", got)
	}
	if got.Position != 1 || got.PageID != "home-group" {
		t.Errorf("placement changed: %+v", got)
	}
}

func TestUpdateTileNotFound(t *testing.T) {
	f := newFixture(t, 0)
	title := "x"
	if _, err := f.svc.UpdateTile(context.Background(), "missing", TilePatch{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTileInvalidURLLeavesState(t *testing.T) {
	f := newFixture(t, 0)
	before := f.svc.Snapshot(context.Background())
	empty := ""
	if _, err := f.svc.UpdateTile(context.Background(), "t1", TilePatch{URL: &empty}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !reflect.DeepEqual(f.svc.Snapshot(context.Background()), before) {
		t.Error("state changed")
	}
}

func TestUpdateTileMovesBetweenPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	target := "work-group"
	got, err := f.svc.UpdateTile(ctx, "t2", TilePatch{PageID: &target})
	if err != nil {
		t.Fatalf("UpdateTile: %v", err)
	}
	if got.PageID != target || got.Position != 0 {
		t.Errorf("tile = %+v", got)
	}
	snap := f.svc.Snapshot(ctx)
	assertDense(t, snap.Tiles, "home-group")
	assertDense(t, snap.Tiles, "work-group")

	home, _ := f.svc.Tiles(ctx, "home-group")
	var ids []string
	for _, tile := range home {
		ids = append(ids, tile.ID)
	}
	if want := []string{"t1", "t3", "t4"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("home = %v, want %v", ids, want)
	}
}

func TestUpdateTileMoveToUnknownPage(t *testing.T) {
	f := newFixture(t, 0)
	target := "ghost"
	if _, err := f.svc.UpdateTile(context.Background(), "t1", TilePatch{PageID: &target}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTileClosesGap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if err := f.svc.DeleteTile(ctx, "t2"); err != nil {
		t.Fatalf("DeleteTile: %v", err)
	}
	snap := f.svc.Snapshot(ctx)
	if snap.TileIndex("t2") >= 0 {
		t.Error("tile still present")
	}
	assertDense(t, snap.Tiles, "home-group")
	if err := f.svc.DeleteTile(ctx, "t2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestReorderTiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	got, err := f.svc.ReorderTiles(ctx, "home-group", 0, 2)
	if err != nil {
		t.Fatalf("ReorderTiles: %v", err)
	}
	var ids []string
	for i, tile := range got {
		ids = append(ids, tile.ID)
		if tile.Position != i {
			t.Errorf("%s position = %d, want %d", tile.ID, tile.Position, i)
		}
	}
	if want := []string{"t2", "t3", "t1", "t4"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}

	back, err := f.svc.ReorderTiles(ctx, "home-group", 2, 0)
	if err != nil {
		t.Fatalf("ReorderTiles back: %v", err)
	}
	if back[0].ID != "t1" || back[3].ID != "t4" {
		t.Errorf("inverse move did not restore order: %+v", back)
	}
	assertDense(t, f.reload(t).Tiles, "home-group")
}

func TestReorderTilesOutOfRange(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.svc.ReorderTiles(context.Background(), "home-group", 0, 4); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.ReorderTiles(context.Background(), "ghost", 0, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPageLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	p, err := f.svc.CreatePage(ctx, "   ")
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if p.Name != DefaultPageName {
		t.Errorf("name = %q", p.Name)
	}
	renamed, err := f.svc.RenamePage(ctx, p.ID, "Fun")
	if err != nil {
		t.Fatalf("RenamePage: %v", err)
	}
	if renamed.Name != "Fun" {
		t.Errorf("renamed = %+v", renamed)
	}
	if _, err := f.svc.RenamePage(ctx, "ghost", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("rename unknown err = %v", err)
	}
	if got := f.reload(t).Pages; len(got) != 3 || got[2].Name != "Fun" {
		t.Errorf("persisted pages = %+v", got)
	}
}

func TestDeletePageCascadesAndMovesActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if err := f.svc.SetActivePage(ctx, "home-group"); err != nil {
		t.Fatalf("SetActivePage: %v", err)
	}
	if err := f.svc.DeletePage(ctx, "home-group"); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	snap := f.svc.Snapshot(ctx)
	if len(snap.Tiles) != 0 {
		t.Errorf("tiles of deleted page remain: %+v", snap.Tiles)
	}
	if snap.ActivePageID != "work-group" {
		t.Errorf("active = %q, want work-group", snap.ActivePageID)
	}
}

func TestDeleteLastPageRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if err := f.svc.DeletePage(ctx, "work-group"); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	before := f.svc.Snapshot(ctx)
	if err := f.svc.DeletePage(ctx, "home-group"); !errors.Is(err, apperr.ErrConstraint) {
		t.Fatalf("err = %v, want ErrConstraint", err)
	}
	if !reflect.DeepEqual(f.svc.Snapshot(ctx), before) {
		t.Error("state changed after refused delete")
	}
}

func TestReorderAndSortPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	if _, err := f.svc.CreatePage(ctx, "apps"); err != nil {
		t.Fatal(err)
	}

	pages, err := f.svc.ReorderPages(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ReorderPages: %v", err)
	}
	if pages[0].Name != "apps" || pages[1].Name != "Home" {
		t.Errorf("pages = %+v", pages)
	}
	if _, err := f.svc.ReorderPages(ctx, 0, 3); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("out of range err = %v", err)
	}

	pages, err = f.svc.SortPages(ctx)
	if err != nil {
		t.Fatalf("SortPages: %v", err)
	}
	var names []string
	for _, p := range pages {
		names = append(names, p.Name)
	}
	if want := []string{"apps", "Home", "Work"}; !reflect.DeepEqual(names, want) {
		t.Errorf("sorted = %v, want %v", names, want)
	}
}

func TestSetActivePageUnknown(t *testing.T) {
	f := newFixture(t, 0)
	if err := f.svc.SetActivePage(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSettingsClampsColumns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	for _, tc := range []struct{ in, want int }{{99, 12}, {-3, 1}, {6, 6}} {
		got, err := f.svc.UpdateSettings(ctx, SettingsPatch{Cols: &tc.in})
		if err != nil {
			t.Fatalf("UpdateSettings(%d): %v", tc.in, err)
		}
		if int(got.Cols) != tc.want {
			t.Errorf("cols(%d) = %d, want %d", tc.in, got.Cols, tc.want)
		}
	}
	if got := f.reload(t).Settings.Cols; got != 6 {
		t.Errorf("persisted cols = %d", got)
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	before := f.svc.Settings(ctx)

	theme, cols := "neon", 3
	_, err := f.svc.UpdateSettings(ctx, SettingsPatch{Theme: &theme, Cols: &cols})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !reflect.DeepEqual(f.svc.Settings(ctx), before) {
		t.Error("settings changed after rejected patch")
	}
}

func TestUpdateSettingsCityCap(t *testing.T) {
	cities := make([]models.WeatherCity, 6)
	for i := range cities {
		cities[i] = models.WeatherCity{ID: models.FlexID(fmt.Sprint(i)), Location: "C"}
	}
	f := newFixture(t, 0)
	_, err := f.svc.UpdateSettings(context.Background(), SettingsPatch{WeatherCities: &cities})
	if !errors.Is(err, apperr.ErrConstraint) {
		t.Fatalf("err = %v, want ErrConstraint", err)
	}
}

func TestAddWeatherCityCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	for i := 0; i < 4; i++ {
		if _, err := f.svc.AddWeatherCity(ctx, models.WeatherCity{Location: fmt.Sprintf("City %d", i)}); err != nil {
			t.Fatalf("AddWeatherCity %d: %v", i, err)
		}
	}
	if n := len(f.svc.Settings(ctx).WeatherCities); n != 5 {
		t.Fatalf("cities = %d, want 5", n)
	}
	_, err := f.svc.AddWeatherCity(ctx, models.WeatherCity{Location: "Sixth"})
	if !errors.Is(err, apperr.ErrConstraint) {
		t.Fatalf("err = %v, want ErrConstraint", err)
	}
	if n := len(f.svc.Settings(ctx).WeatherCities); n != 5 {
		t.Errorf("cities = %d after refused add", n)
	}
}

func TestAddWeatherCityValidates(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.AddWeatherCity(context.Background(), models.WeatherCity{Location: "X", Latitude: 123})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRemoveWeatherCity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	if err := f.svc.RemoveWeatherCity(ctx, "ny-weather"); err != nil {
		t.Fatalf("RemoveWeatherCity: %v", err)
	}
	if n := len(f.svc.Settings(ctx).WeatherCities); n != 0 {
		t.Errorf("cities = %d", n)
	}
	if err := f.svc.RemoveWeatherCity(ctx, "ny-weather"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetBackgroundImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	got, err := f.svc.SetBackgroundImage(ctx, "image/png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("SetBackgroundImage: %v", err)
	}
	if !strings.HasPrefix(got.BackgroundImage, "data:image/png;base64,") {
		t.Errorf("background = %q", got.BackgroundImage)
	}
	got, err = f.svc.ClearBackgroundImage(ctx)
	if err != nil {
		t.Fatalf("ClearBackgroundImage: %v", err)
	}
	if got.BackgroundImage != "" {
		t.Errorf("background = %q", got.BackgroundImage)
	}
}

func TestSetBackgroundImageRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if _, err := f.svc.SetBackgroundImage(ctx, "text/plain", []byte("x")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("mime err = %v", err)
	}
	big := make([]byte, MaxBackgroundImageBytes+1)
	if _, err := f.svc.SetBackgroundImage(ctx, "image/jpeg", big); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("size err = %v", err)
	}
}

func TestSetBackgroundImageQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 8<<10)

	got, err := f.svc.SetBackgroundImage(ctx, "image/jpeg", make([]byte, 16<<10))
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if got.BackgroundImage == "" || f.svc.Settings(ctx).BackgroundImage == "" {
		t.Error("image not kept in memory after quota failure")
	}
}

func TestNoteIndependentOfState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if err := f.svc.SetNote(ctx, "buy milk"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if got := f.svc.Note(ctx); got != "buy milk" {
		t.Errorf("note = %q", got)
	}
	v, ok, _ := f.store.Load(ctx, state.KeyNote)
	if !ok || v != "buy milk" {
		t.Errorf("stored note = %q, %v", v, ok)
	}

	again := NewService(ctx, f.store, nil)
	if got := again.Note(ctx); got != "buy milk" {
		t.Errorf("reloaded note = %q", got)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	if _, err := f.svc.CreatePage(ctx, "Extra"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SetNote(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !reflect.DeepEqual(f.svc.Snapshot(ctx), state.Default()) {
		t.Error("state not reset to defaults")
	}
	if f.svc.Note(ctx) != "" {
		t.Error("note survived reset")
	}
	if _, ok, _ := f.store.Load(ctx, state.KeyNote); ok {
		t.Error("note key survived reset")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	cols, theme := 7, models.ThemeLight
	if _, err := f.svc.UpdateSettings(ctx, SettingsPatch{Cols: &cols, Theme: &theme}); err != nil {
		t.Fatal(err)
	}
	p, err := f.svc.CreatePage(ctx, "Fun")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateTile(ctx, p.ID, TileInput{URL: "fun.example"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ReorderTiles(ctx, "home-group", 3, 0); err != nil {
		t.Fatal(err)
	}
	before := f.svc.Snapshot(ctx)

	data, err := f.svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	other := newFixture(t, 0)
	if err := other.svc.ImportNative(ctx, data); err != nil {
		t.Fatalf("ImportNative: %v", err)
	}
	after := other.svc.Snapshot(ctx)
	if !reflect.DeepEqual(after.Settings, before.Settings) {
		t.Errorf("settings = %+v, want %+v", after.Settings, before.Settings)
	}
	if !reflect.DeepEqual(after.Pages, before.Pages) {
		t.Errorf("pages = %+v, want %+v", after.Pages, before.Pages)
	}
	if !reflect.DeepEqual(after.Tiles, before.Tiles) {
		t.Errorf("tiles = %+v, want %+v", after.Tiles, before.Tiles)
	}
	if after.ActivePageID != "home-group" {
		t.Errorf("active = %q", after.ActivePageID)
	}
}

func TestImportNativePartialKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	before := f.svc.Snapshot(ctx)

	err := f.svc.ImportNative(ctx, []byte(`{"pages":[],"tiles":[{"id":"a","url":"https://a.io","position":5,"pageId":"work-group"},{"id":"b","url":"https://b.io","position":2,"pageId":"work-group"}]}`))
	if err != nil {
		t.Fatalf("ImportNative: %v", err)
	}
	snap := f.svc.Snapshot(ctx)
	if !reflect.DeepEqual(snap.Settings, before.Settings) {
		t.Error("settings changed")
	}
	if !reflect.DeepEqual(snap.Pages, before.Pages) {
		t.Error("empty page list replaced the pages")
	}
	tiles, _ := f.svc.Tiles(ctx, "work-group")
	if len(tiles) != 2 || tiles[0].ID != "b" || tiles[0].Position != 0 || tiles[1].Position != 1 {
		t.Errorf("work tiles = %+v", tiles)
	}
}

func TestImportedUnusableBackgroundDoesNotBlockSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	if err := f.svc.ImportNative(ctx, []byte(`{"settings":{"cols":4,"backgroundImage":"images/bg.jpg"}}`)); err != nil {
		t.Fatalf("ImportNative: %v", err)
	}
	if bg := f.svc.Settings(ctx).BackgroundImage; bg != "" {
		t.Errorf("background = %q, want cleared", bg)
	}
	cols := 6
	got, err := f.svc.UpdateSettings(ctx, SettingsPatch{Cols: &cols})
	if err != nil {
		t.Fatalf("UpdateSettings after import: %v", err)
	}
	if got.Cols != 6 {
		t.Errorf("cols = %d", got.Cols)
	}
}

func TestImportNativeMalformedLeavesState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	before := f.svc.Snapshot(ctx)

	for _, doc := range []string{`{`, `[]`, `{"tiles":"nope"}`} {
		if err := f.svc.ImportNative(ctx, []byte(doc)); !errors.Is(err, apperr.ErrImport) {
			t.Errorf("%s: err = %v, want ErrImport", doc, err)
		}
	}
	if !reflect.DeepEqual(f.svc.Snapshot(ctx), before) {
		t.Error("state changed after malformed import")
	}
	if len(f.events) != 0 {
		t.Errorf("events = %+v", f.events)
	}
}

func TestImportLegacyExample(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	doc := `{"groups":[{"id":1,"title":"Home"}],"dials":[{"id":5,"title":"X","url":"https://x.com","position":0,"idgroup":1}]}`
	if err := f.svc.Import(ctx, []byte(doc)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	snap := f.svc.Snapshot(ctx)
	if want := []models.Page{{ID: "1", Name: "Home"}}; !reflect.DeepEqual(snap.Pages, want) {
		t.Errorf("pages = %+v", snap.Pages)
	}
	want := []models.Tile{{ID: "5", Title: "X", URL: "https://x.com", Position: 0, PageID: "1"}}
	if !reflect.DeepEqual(snap.Tiles, want) {
		t.Errorf("tiles = %+v", snap.Tiles)
	}
	if snap.ActivePageID != "1" {
		t.Errorf("active = %q, want 1", snap.ActivePageID)
	}
	if got := f.reload(t); got.ActivePageID != "1" {
		t.Errorf("persisted active = %q", got.ActivePageID)
	}
}

func TestImportLegacyEmptyKeepsCollections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	before := f.svc.Snapshot(ctx)

	if err := f.svc.ImportLegacy(ctx, []byte(`{"groups":[],"dials":[]}`)); err != nil {
		t.Fatalf("ImportLegacy: %v", err)
	}
	snap := f.svc.Snapshot(ctx)
	if !reflect.DeepEqual(snap.Pages, before.Pages) || !reflect.DeepEqual(snap.Tiles, before.Tiles) {
		t.Error("empty legacy document replaced collections")
	}
}

func TestTilesDefaultsToActivePage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	tiles, err := f.svc.Tiles(ctx, "")
	if err != nil {
		t.Fatalf("Tiles: %v", err)
	}
	if len(tiles) != 4 {
		t.Errorf("tiles = %d, want 4", len(tiles))
	}
	work, err := f.svc.Tiles(ctx, "work-group")
	if err != nil || work == nil || len(work) != 0 {
		t.Errorf("work tiles = %v, %v", work, err)
	}
}
