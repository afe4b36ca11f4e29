package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/terrain-ouvert/datahub/internal/api/middleware"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	apperrors "github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/utils"
	"github.com/terrain-ouvert/datahub/internal/services"
	"github.com/terrain-ouvert/datahub/internal/testutil"
	"github.com/terrain-ouvert/datahub/internal/upload"
)

type stubUploader struct {
	calls int
	err   error
}

func (u *stubUploader) Upload(ctx context.Context, blobs []upload.Blob, ownerID int64, batchTag string) (upload.Result, error) {
	u.calls++
	if u.err != nil {
		return nil, apperrors.UploadError("stub", u.err)
	}
	out := make(upload.Result, len(blobs))
	for i := range blobs {
		out[i] = "https://cdn.example/" + blobs[i].Filename
	}
	return out, nil
}

func newPublicationHandler(t *testing.T, uploader Uploader) (*PublicationHandler, *testutil.MockPublicationRepository) {
	t.Helper()
	repo := testutil.NewMockPublicationRepository()
	users := testutil.NewMockUserRepository()
	log := logger.Nop()
	service := services.NewPublicationService(repo, users, services.NewValidator(), log)
	h := NewPublicationHandler(service, uploader, PublicationConfig{
		BatchTag:    "test",
		MaxFiles:    3,
		MaxFileSize: 5 << 20,
		ListOptions: publication.QueryOptions,
	}, log)
	return h, repo
}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func multipartBody(t *testing.T, fields map[string]string, images int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	for i := 0; i < images; i++ {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="p.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		part.Write(jpeg)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestPublicationHandler_Create(t *testing.T) {
	fields := map[string]string{
		"title":       "Test",
		"description": "Sortie",
		"refLink":     "https://example.org",
	}

	tests := []struct {
		name           string
		images         int
		uploadErr      error
		expectedStatus int
		wantUploads    int
		wantImages     int
	}{
		{name: "two images", images: 2, expectedStatus: http.StatusCreated, wantUploads: 1, wantImages: 2},
		{name: "no image", images: 0, expectedStatus: http.StatusCreated, wantUploads: 1, wantImages: 0},
		{name: "too many images", images: 4, expectedStatus: http.StatusBadRequest, wantUploads: 0},
		{name: "storage failure", images: 1, uploadErr: errors.New("bucket gone"), expectedStatus: http.StatusBadGateway, wantUploads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &stubUploader{err: tt.uploadErr}
			h, repo := newPublicationHandler(t, uploader)

			body, contentType := multipartBody(t, fields, tt.images)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/resources", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()

			h.Create(rr, withUser(req, 7))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if uploader.calls != tt.wantUploads {
				t.Errorf("uploader called %d times, want %d", uploader.calls, tt.wantUploads)
			}
			if tt.expectedStatus != http.StatusCreated {
				if len(repo.Docs) != 0 {
					t.Errorf("failed request persisted %d documents", len(repo.Docs))
				}
				return
			}

			var resp struct {
				Data struct {
					Data publication.Publication `json:"data"`
				} `json:"data"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			got := resp.Data.Data
			if got.Slug != "test" || got.User != 7 || len(got.Images) != tt.wantImages {
				t.Errorf("created = %+v", got)
			}
		})
	}
}

func TestPublicationHandler_CreateJSON(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid",
			body:           `{"title":"Pêche à la mouche","description":"d","refLink":"https://x.org","category":"peche"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown field",
			body:           `{"title":"Test","description":"d","refLink":"https://x.org","owner":3}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid category",
			body:           `{"title":"Test","description":"d","refLink":"https://x.org","category":"golf"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed",
			body:           `{"title":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &stubUploader{}
			h, _ := newPublicationHandler(t, uploader)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/resources", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			h.Create(rr, withUser(req, 1))

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if uploader.calls != 0 {
				t.Errorf("JSON request reached the uploader")
			}
		})
	}
}

func TestPublicationHandler_BodyErrors(t *testing.T) {
	oversize, oversizeType := multipartBody(t, map[string]string{
		"title":       "Test",
		"description": strings.Repeat("a", 8192),
		"refLink":     "https://example.org",
	}, 1)
	oversizeBytes := oversize.Bytes()

	tests := []struct {
		name        string
		body        []byte
		contentType string
		streamed    bool
		wantMessage string
	}{
		{
			name:        "declared length above limit",
			body:        oversizeBytes,
			contentType: oversizeType,
			wantMessage: "Request body exceeds the 4096 byte limit",
		},
		{
			name:        "streamed body above limit",
			body:        oversizeBytes,
			contentType: oversizeType,
			streamed:    true,
			wantMessage: "Request body exceeds the 4096 byte limit",
		},
		{
			name:        "wrong boundary",
			body:        []byte("--other\r\nContent-Disposition: form-data; name=\"title\"\r\n\r\nx\r\n--other--\r\n"),
			contentType: "multipart/form-data; boundary=expected",
			wantMessage: "Invalid multipart body",
		},
		{
			name:        "malformed json",
			body:        []byte(`{"title":`),
			contentType: "application/json",
			wantMessage: "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &stubUploader{}
			log := logger.Nop()
			service := services.NewPublicationService(testutil.NewMockPublicationRepository(), testutil.NewMockUserRepository(), services.NewValidator(), log)
			h := NewPublicationHandler(service, uploader, PublicationConfig{
				BatchTag:    "test",
				MaxFiles:    3,
				MaxFileSize: 1024,
				MaxBody:     4096,
				ListOptions: publication.QueryOptions,
			}, log)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/resources", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.streamed {
				req.ContentLength = -1
			}
			rr := httptest.NewRecorder()

			h.Create(rr, withUser(req, 7))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
			var resp utils.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMessage)
			}
			if uploader.calls != 0 {
				t.Errorf("rejected body reached the uploader")
			}
		})
	}
}

func TestPublicationHandler_GetAndDelete(t *testing.T) {
	h, repo := newPublicationHandler(t, &stubUploader{})
	repo.Docs["p1"] = &publication.Publication{ID: "p1", User: 1, Title: "Brochet", Images: []string{}}

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "existing", id: "p1", expectedStatus: http.StatusOK},
		{name: "missing", id: "nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run("get "+tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/resources/"+tt.id, nil), "id", tt.id)
			rr := httptest.NewRecorder()
			h.Get(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/resources/delete/p1", nil), "id", "p1")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Delete status = %v, want 204", rr.Code)
	}
	if _, ok := repo.Docs["p1"]; ok {
		t.Errorf("publication still stored after delete")
	}
}

func TestPublicationHandler_ListByUser(t *testing.T) {
	h, repo := newPublicationHandler(t, &stubUploader{})
	repo.Docs["a"] = &publication.Publication{ID: "a", User: 1, Images: []string{}}
	repo.Docs["b"] = &publication.Publication{ID: "b", User: 2, Images: []string{}}

	tests := []struct {
		name           string
		userID         string
		expectedStatus int
		wantResults    int
	}{
		{name: "owner with one", userID: "1", expectedStatus: http.StatusOK, wantResults: 1},
		{name: "owner without", userID: "9", expectedStatus: http.StatusOK, wantResults: 0},
		{name: "not a number", userID: "abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/resources/user/"+tt.userID, nil), "userId", tt.userID)
			rr := httptest.NewRecorder()
			h.ListByUser(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}
			var resp struct {
				Results int `json:"results"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Results != tt.wantResults {
				t.Errorf("results = %d, want %d", resp.Results, tt.wantResults)
			}
		})
	}
}
