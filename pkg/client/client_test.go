package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Token: "tok"})
}

func TestPublicationService_List(t *testing.T) {
	var gotQuery, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","results":2,"totalResults":12,"totalPages":2,"page":2,
			"data":{"data":[{"id":"a","title":"un"},{"id":"b","title":"deux"}]}}`)
	})

	list, err := c.Publications().List(context.Background(), &ListOptions{
		Page:   2,
		Limit:  10,
		Sort:   []string{"-rating", "title"},
		Filter: map[string]string{"category": "chasse"},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if want := "category=chasse&limit=10&page=2&sort=-rating%2Ctitle"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(list.Items) != 2 || list.Items[1].ID != "b" {
		t.Errorf("Items = %+v", list.Items)
	}
	if list.Results != 2 || list.TotalResults != 12 || list.TotalPages != 2 || list.Page != 2 {
		t.Errorf("counters = %+v", list)
	}
}

func TestPublicationService_CreateMultipart(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

	var gotTitle string
	var gotTypes []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		gotTitle = r.FormValue("title")
		for _, fh := range r.MultipartForm.File["images"] {
			gotTypes = append(gotTypes, fh.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"status":"success","data":{"data":{"id":"x","slug":"test","images":["u1","u2"]}}}`)
	})

	pub, err := c.Publications().Create(context.Background(), CreatePublicationRequest{
		Title:       "Test",
		Description: "d",
		RefLink:     "https://example.org",
	}, Image{Name: "a.jpg", Data: jpeg}, Image{Data: jpeg})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if gotTitle != "Test" {
		t.Errorf("title = %q, want Test", gotTitle)
	}
	if len(gotTypes) != 2 || gotTypes[0] != "image/jpeg" {
		t.Errorf("image content types = %v", gotTypes)
	}
	if pub.Slug != "test" || len(pub.Images) != 2 {
		t.Errorf("Create() = %+v", pub)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		wantCheck func(*APIError) bool
	}{
		{
			name:      "not found envelope",
			status:    http.StatusNotFound,
			body:      `{"status":"fail","error":{"code":"NOT_FOUND","message":"Publication not found"}}`,
			wantCode:  "NOT_FOUND",
			wantCheck: (*APIError).IsNotFound,
		},
		{
			name:      "upload failure",
			status:    http.StatusBadGateway,
			body:      `{"status":"error","error":{"code":"UPLOAD_FAILED","message":"Image upload failed"}}`,
			wantCode:  "UPLOAD_FAILED",
			wantCheck: (*APIError).IsUploadError,
		},
		{
			name:      "plain text body",
			status:    http.StatusForbidden,
			body:      "forbidden",
			wantCheck: (*APIError).IsForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.Publications().Get(context.Background(), "x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Get() error = %v, want *APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if !tt.wantCheck(apiErr) {
				t.Errorf("status check failed for %d", apiErr.StatusCode)
			}
		})
	}
}

func TestFavoriteService_Toggle(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, `{"status":"success","data":{"data":{"added":true,"favorites":["a","b"]}}}`)
	})

	res, err := c.Favorites().Toggle(context.Background(), "b")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if gotPath != "/api/v1/resources/fav/b" {
		t.Errorf("path = %q", gotPath)
	}
	if !res.Added || len(res.Favorites) != 2 {
		t.Errorf("Toggle() = %+v", res)
	}
}

func TestPublicationService_DeleteNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Publications().Delete(context.Background(), "x"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
