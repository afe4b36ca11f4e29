package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/terrain-ouvert/datahub/internal/api/handlers"
	"github.com/terrain-ouvert/datahub/internal/auth"
	"github.com/terrain-ouvert/datahub/internal/config"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/query"
	"github.com/terrain-ouvert/datahub/internal/repository/sqlstore"
	"github.com/terrain-ouvert/datahub/internal/services"
	"github.com/terrain-ouvert/datahub/internal/storage"
	"github.com/terrain-ouvert/datahub/internal/testutil"
	"github.com/terrain-ouvert/datahub/internal/upload"
)

const testSecret = "test-secret"

type envelope struct {
	Status       string `json:"status"`
	Results      *int   `json:"results"`
	TotalResults *int64 `json:"totalResults"`
	TotalPages   *int   `json:"totalPages"`
	Page         *int   `json:"page"`
	Data         struct {
		Data json.RawMessage `json:"data"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testApp struct {
	handler      http.Handler
	store        *storage.MemoryStore
	publications *services.PublicationService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Defaults()
	cfg.Auth.JWTSecret = testSecret

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })
	sdb := sqlstore.Wrap(db, sqlstore.SQLite)

	log := logger.Nop()
	pubRepo := sqlstore.NewPublicationRepository(sdb)
	userRepo := sqlstore.NewUserRepository(sdb)
	favRepo := sqlstore.NewFavoriteRepository(sdb)

	users := services.NewUserService(userRepo, log)
	pubs := services.NewPublicationService(pubRepo, userRepo, services.NewValidator(), log)
	favs := services.NewFavoriteService(favRepo, pubRepo, log)

	store := storage.NewMemoryStore("https://cdn.example")
	orch := upload.New(store, upload.ConfigFrom(cfg.Upload), log)

	favOptions := publication.QueryOptions
	favOptions.PageSize = query.FavoritesPageSize

	h := &Handlers{
		Health: handlers.NewHealthHandler(db, store.Name(), log),
		Publication: handlers.NewPublicationHandler(pubs, orch, handlers.PublicationConfig{
			BatchTag:    cfg.Upload.BatchTag,
			MaxFiles:    cfg.Upload.MaxFiles,
			MaxFileSize: cfg.Upload.MaxFileSize,
			ListOptions: publication.QueryOptions,
		}, log),
		Favorite: handlers.NewFavoriteHandler(favs, favOptions, log),
	}

	return &testApp{
		handler:      New(cfg, log, h, Deps{Users: users}),
		store:        store,
		publications: pubs,
	}
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := auth.Mint(userID, fmt.Sprintf("user%d@example.org", userID), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	return tok
}

func (a *testApp) do(t *testing.T, req *http.Request, userID int64) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		img.Set(x, x%24, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, images int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	for i := 0; i < images; i++ {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="img%d.jpg"`, i))
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		part.Write(jpegBytes(t))
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func seed(t *testing.T, app *testApp, owner int64, title, category string, rating float64) *publication.Publication {
	t.Helper()
	p, err := app.publications.Create(context.Background(), &publication.Publication{
		Title:       title,
		Description: "notes",
		RefLink:     "https://example.org/ref",
		Category:    category,
		Rating:      rating,
	}, owner)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestCreatePublicationWithImages(t *testing.T) {
	app := newTestApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/resources/", map[string]string{
		"title":       "Test",
		"description": "Relevé de terrain",
		"refLink":     "https://example.org/ref",
		"category":    "peche",
		"rating":      "4",
	}, 2)
	rec, env := app.do(t, req, 7)

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got publication.Publication
	if err := json.Unmarshal(env.Data.Data, &got); err != nil {
		t.Fatalf("decode publication: %v", err)
	}
	if got.Slug != "test" || got.User != 7 || len(got.Images) != 2 {
		t.Errorf("created = slug %q user %d images %v", got.Slug, got.User, got.Images)
	}
	for i, url := range got.Images {
		if !strings.HasPrefix(url, "https://cdn.example/publications/7/Publication-7-") || !strings.HasSuffix(url, fmt.Sprintf("-%d", i)) {
			t.Errorf("image %d = %s", i, url)
		}
	}
	if app.store.Len() != 2 {
		t.Errorf("store holds %d objects, want 2", app.store.Len())
	}
}

func TestCreatePublicationRejectsTooManyImages(t *testing.T) {
	app := newTestApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/resources/", map[string]string{
		"title":       "Test",
		"description": "Relevé",
		"refLink":     "https://example.org/ref",
	}, 4)
	rec, env := app.do(t, req, 7)

	if rec.Code != http.StatusBadRequest || env.Status != "fail" {
		t.Errorf("POST status = %d %q, want 400 fail", rec.Code, env.Status)
	}
	if app.store.Len() != 0 {
		t.Errorf("store holds %d objects, want 0", app.store.Len())
	}
}

func TestCreatePublicationRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resources/", strings.NewReader(`{"title":"Test"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, env := app.do(t, req, 0)

	if rec.Code != http.StatusUnauthorized || env.Status != "fail" {
		t.Errorf("POST status = %d %q, want 401 fail", rec.Code, env.Status)
	}
}

func TestListPublications(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 25; i++ {
		seed(t, app, 1, fmt.Sprintf("Chasse %d", i), publication.CategoryChasse, float64(i%5))
	}
	for i := 0; i < 4; i++ {
		seed(t, app, 2, fmt.Sprintf("Peche %d", i), publication.CategoryPeche, 5)
	}

	tests := []struct {
		name            string
		target          string
		wantCode        int
		wantResults     int
		wantTotal       int64
		wantPages       int
		wantPage        int
		wantOnlyIDTitle bool
	}{
		{
			name:        "filtered sorted second page",
			target:      "/api/v1/resources/?category=chasse&sort=-rating&page=2&limit=10",
			wantCode:    http.StatusOK,
			wantResults: 10,
			wantTotal:   25,
			wantPages:   3,
			wantPage:    2,
		},
		{
			name:        "unknown parameters ignored",
			target:      "/api/v1/resources/?bogus=1&rating[foo]=3&limit=abc",
			wantCode:    http.StatusOK,
			wantResults: 29,
			wantTotal:   29,
			wantPages:   1,
			wantPage:    1,
		},
		{
			name:        "nothing matches",
			target:      "/api/v1/resources/?category=biologie",
			wantCode:    http.StatusOK,
			wantResults: 0,
			wantTotal:   0,
			wantPages:   0,
			wantPage:    1,
		},
		{
			name:            "projection",
			target:          "/api/v1/resources/?fields=title&limit=3",
			wantCode:        http.StatusOK,
			wantResults:     3,
			wantTotal:       29,
			wantPages:       10,
			wantPage:        1,
			wantOnlyIDTitle: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := app.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil), 0)
			if rec.Code != tt.wantCode {
				t.Fatalf("GET status = %d, want %d", rec.Code, tt.wantCode)
			}
			if env.Results == nil || env.TotalResults == nil || env.TotalPages == nil || env.Page == nil {
				t.Fatalf("GET envelope missing counters: %s", rec.Body.String())
			}
			if *env.Results != tt.wantResults || *env.TotalResults != tt.wantTotal ||
				*env.TotalPages != tt.wantPages || *env.Page != tt.wantPage {
				t.Errorf("GET counters = %d/%d/%d/%d, want %d/%d/%d/%d",
					*env.Results, *env.TotalResults, *env.TotalPages, *env.Page,
					tt.wantResults, tt.wantTotal, tt.wantPages, tt.wantPage)
			}

			var docs []map[string]interface{}
			if err := json.Unmarshal(env.Data.Data, &docs); err != nil {
				t.Fatalf("decode list: %v", err)
			}
			if len(docs) != tt.wantResults {
				t.Errorf("GET returned %d docs, want %d", len(docs), tt.wantResults)
			}
			if tt.wantOnlyIDTitle {
				for _, d := range docs {
					if len(d) != 2 || d["id"] == nil || d["title"] == nil {
						t.Errorf("projected doc = %v, want id and title only", d)
					}
				}
			}
		})
	}
}

func TestGetPublicationPopulatesOwner(t *testing.T) {
	app := newTestApp(t)

	// Authenticating once records the user
	app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/fav", nil), 3)
	p := seed(t, app, 3, "Relevé", publication.CategoryPeche, 2)

	rec, env := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/"+p.ID, nil), 0)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var got publication.Publication
	if err := json.Unmarshal(env.Data.Data, &got); err != nil {
		t.Fatalf("decode publication: %v", err)
	}
	if got.Owner == nil || got.Owner.ID != 3 || got.Owner.Username != "user3" {
		t.Errorf("GET owner = %+v, want user3", got.Owner)
	}

	rec, env = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/missing", nil), 0)
	if rec.Code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Errorf("GET missing = %d %s, want 404 NOT_FOUND", rec.Code, env.Error.Code)
	}
}

func TestOwnerOnlyMutations(t *testing.T) {
	app := newTestApp(t)
	p := seed(t, app, 1, "Relevé", publication.CategoryPeche, 2)

	patch := func() *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/resources/modify/"+p.ID, strings.NewReader(`{"title":"Nouveau titre","rating":4.5}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	rec, _ := app.do(t, patch(), 2)
	if rec.Code != http.StatusForbidden {
		t.Errorf("PATCH by other user = %d, want 403", rec.Code)
	}

	rec, env := app.do(t, patch(), 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH by owner = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got publication.Publication
	if err := json.Unmarshal(env.Data.Data, &got); err != nil {
		t.Fatalf("decode publication: %v", err)
	}
	if got.Title != "Nouveau titre" || got.Rating != 4.5 || got.Slug != p.Slug {
		t.Errorf("PATCH result = %+v", got)
	}

	rec, _ = app.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/resources/delete/"+p.ID, nil), 2)
	if rec.Code != http.StatusForbidden {
		t.Errorf("DELETE by other user = %d, want 403", rec.Code)
	}
	rec, _ = app.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/resources/delete/"+p.ID, nil), 1)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("DELETE by owner = %d %q, want 204 empty", rec.Code, rec.Body.String())
	}
	rec, _ = app.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/resources/delete/"+p.ID, nil), 1)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE twice = %d, want 404", rec.Code)
	}
}

func TestFavorites(t *testing.T) {
	app := newTestApp(t)
	a := seed(t, app, 1, "Premier", publication.CategoryPeche, 1)
	b := seed(t, app, 1, "Second", publication.CategoryPeche, 1)

	toggle := func(id string) (int, []string, bool) {
		rec, env := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/fav/"+id, nil), 5)
		var res struct {
			Added     bool     `json:"added"`
			Favorites []string `json:"favorites"`
		}
		json.Unmarshal(env.Data.Data, &res)
		return rec.Code, res.Favorites, res.Added
	}

	if code, ids, added := toggle(a.ID); code != http.StatusOK || !added || len(ids) != 1 {
		t.Errorf("toggle a = %d %v %v", code, ids, added)
	}
	if code, ids, _ := toggle(b.ID); code != http.StatusOK || len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Errorf("toggle b = %d %v", code, ids)
	}
	if code, ids, added := toggle(a.ID); code != http.StatusOK || added || len(ids) != 1 || ids[0] != b.ID {
		t.Errorf("toggle a again = %d %v %v", code, ids, added)
	}
	if code, _, _ := toggle("missing"); code != http.StatusNotFound {
		t.Errorf("toggle missing = %d, want 404", code)
	}

	rec, env := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/fav", nil), 5)
	if rec.Code != http.StatusOK || env.Results == nil || *env.Results != 1 || *env.TotalResults != 1 {
		t.Errorf("GET fav = %d %s", rec.Code, rec.Body.String())
	}

	rec, env = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/fav", nil), 6)
	if rec.Code != http.StatusOK || *env.Results != 0 || *env.TotalPages != 0 {
		t.Errorf("GET fav of other user = %d %s", rec.Code, rec.Body.String())
	}
}

func TestListByUser(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, 1, "Premier", publication.CategoryPeche, 1)
	seed(t, app, 2, "Second", publication.CategoryPeche, 1)
	seed(t, app, 2, "Troisième", publication.CategoryChasse, 1)

	rec, env := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/user/2", nil), 1)
	if rec.Code != http.StatusOK || *env.TotalResults != 2 {
		t.Errorf("GET user/2 = %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/user/abc", nil), 1)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET user/abc = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		rec, env := app.do(t, httptest.NewRequest(http.MethodGet, path, nil), 0)
		if rec.Code != http.StatusOK || env.Status != "success" {
			t.Errorf("GET %s = %d %q", path, rec.Code, env.Status)
		}
	}
}
