package services

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/query"
	"github.com/terrain-ouvert/datahub/internal/testutil"
)

func newPublicationService(t *testing.T) (*PublicationService, *testutil.MockPublicationRepository, *testutil.MockUserRepository) {
	t.Helper()
	repo := testutil.NewMockPublicationRepository()
	users := testutil.NewMockUserRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewPublicationService(repo, users, NewValidator(), log), repo, users
}

func validPublication() *publication.Publication {
	return &publication.Publication{
		Title:       "Test",
		Description: "Relevé de terrain",
		RefLink:     "https://example.org/ref",
		Category:    publication.CategoryPeche,
	}
}

func TestResourceService_Create(t *testing.T) {
	service, repo, _ := newPublicationService(t)

	tests := []struct {
		name     string
		doc      func() *publication.Publication
		ownerID  int64
		wantErr  bool
		wantSlug string
		wantCat  string
	}{
		{
			name:     "valid publication",
			doc:      validPublication,
			ownerID:  7,
			wantSlug: "test",
			wantCat:  publication.CategoryPeche,
		},
		{
			name: "accented title and default category",
			doc: func() *publication.Publication {
				p := validPublication()
				p.Title = "Pêche à la Mouche"
				p.Category = ""
				return p
			},
			ownerID:  7,
			wantSlug: "peche-a-la-mouche",
			wantCat:  publication.CategoryAutre,
		},
		{
			name: "unknown category",
			doc: func() *publication.Publication {
				p := validPublication()
				p.Category = "astronomie"
				return p
			},
			ownerID: 7,
			wantErr: true,
		},
		{
			name: "too many images",
			doc: func() *publication.Publication {
				p := validPublication()
				p.Images = []string{"a", "b", "c", "d"}
				return p
			},
			ownerID: 7,
			wantErr: true,
		},
		{
			name: "missing title",
			doc: func() *publication.Publication {
				p := validPublication()
				p.Title = ""
				return p
			},
			ownerID: 7,
			wantErr: true,
		},
		{
			name:    "missing owner",
			doc:     validPublication,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.Create(context.Background(), tt.doc(), tt.ownerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeValidation) {
					t.Errorf("Create() error = %v, want validation error", err)
				}
				return
			}
			if got.ID == "" || got.User != tt.ownerID {
				t.Errorf("Create() id = %q owner = %d", got.ID, got.User)
			}
			if got.Slug != tt.wantSlug || got.Category != tt.wantCat {
				t.Errorf("Create() slug = %q category = %q, want %q %q", got.Slug, got.Category, tt.wantSlug, tt.wantCat)
			}
			if got.Images == nil || got.CreatedAt.IsZero() {
				t.Errorf("Create() images = %v createdAt = %v", got.Images, got.CreatedAt)
			}
			if _, ok := repo.Docs[got.ID]; !ok {
				t.Errorf("Create() did not store %s", got.ID)
			}
		})
	}
}

func TestResourceService_CreateIgnoresClientID(t *testing.T) {
	service, _, _ := newPublicationService(t)

	p := validPublication()
	p.ID = "chosen-by-client"
	got, err := service.Create(context.Background(), p, 3)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID == "chosen-by-client" {
		t.Errorf("Create() kept client supplied id")
	}
}

func TestResourceService_Update(t *testing.T) {
	service, _, _ := newPublicationService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validPublication(), 7)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	title := "Nouveau titre"
	badCategory := "astronomie"

	tests := []struct {
		name     string
		id       string
		apply    func(*publication.Publication) error
		wantErr  bool
		wantCode string
	}{
		{
			name:  "change title",
			id:    created.ID,
			apply: publication.Patch{Title: &title}.Apply,
		},
		{
			name: "owner cannot be reassigned",
			id:   created.ID,
			apply: func(p *publication.Publication) error {
				p.User = 99
				p.ID = "other"
				return nil
			},
		},
		{
			name:     "invalid merged document",
			id:       created.ID,
			apply:    publication.Patch{Category: &badCategory}.Apply,
			wantErr:  true,
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "missing document",
			id:       "missing",
			apply:    publication.Patch{Title: &title}.Apply,
			wantErr:  true,
			wantCode: errors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.Update(ctx, tt.id, tt.apply)
			if (err != nil) != tt.wantErr {
				t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, tt.wantCode) {
					t.Errorf("Update() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if got.ID != created.ID || got.User != 7 {
				t.Errorf("Update() id = %q owner = %d, want %q 7", got.ID, got.User, created.ID)
			}
			if got.Title != title {
				t.Errorf("Update() title = %q, want %q", got.Title, title)
			}
		})
	}
}

func TestResourceService_Delete(t *testing.T) {
	service, _, _ := newPublicationService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validPublication(), 7)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := service.Get(ctx, created.ID); !errors.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
	if err := service.Delete(ctx, created.ID); !errors.IsNotFound(err) {
		t.Errorf("Delete() twice error = %v, want not found", err)
	}
}

func TestPublicationService_GetWithOwner(t *testing.T) {
	service, repo, users := newPublicationService(t)
	ctx := context.Background()

	users.Users[7] = &user.User{ID: 7, Email: "marie@example.org", Username: "marie"}
	repo.Docs["known"] = &publication.Publication{ID: "known", User: 7, Title: "A"}
	repo.Docs["orphan"] = &publication.Publication{ID: "orphan", User: 8, Title: "B"}

	tests := []struct {
		name         string
		id           string
		wantErr      bool
		wantOwner    int64
		wantUsername string
	}{
		{name: "owner known", id: "known", wantOwner: 7, wantUsername: "marie"},
		{name: "owner unknown", id: "orphan", wantOwner: 8},
		{name: "missing publication", id: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.GetWithOwner(ctx, tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetWithOwner() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.Owner == nil || got.Owner.ID != tt.wantOwner || got.Owner.Username != tt.wantUsername {
				t.Errorf("GetWithOwner() owner = %+v, want %d %q", got.Owner, tt.wantOwner, tt.wantUsername)
			}
			if got.User != tt.wantOwner {
				t.Errorf("GetWithOwner() user = %d, want %d", got.User, tt.wantOwner)
			}
		})
	}
}

func TestPublicationService_ListByOwner(t *testing.T) {
	service, repo, _ := newPublicationService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("pub-%02d", i)
		repo.Docs[id] = &publication.Publication{
			ID:        id,
			User:      int64(1 + i%3),
			Category:  publication.CategoryChasse,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}

	plan := query.Compile(url.Values{"limit": {"3"}}, publication.QueryOptions)
	page, err := service.ListByOwner(ctx, 2, plan)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if page.Total != 4 || len(page.Items) != 3 || page.TotalPages() != 2 {
		t.Errorf("ListByOwner() total = %d items = %d pages = %d, want 4 3 2", page.Total, len(page.Items), page.TotalPages())
	}
	for _, p := range page.Items {
		if p.User != 2 {
			t.Errorf("ListByOwner() returned publication of user %d", p.User)
		}
	}
	if page.Items[0].ID != "pub-10" {
		t.Errorf("ListByOwner() first = %s, want newest pub-10", page.Items[0].ID)
	}
}
