package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/terrain-ouvert/datahub/internal/domain/favorite"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[int64]*user.User
	UpsertError error
	GetError    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[int64]*user.User)}
}

func (m *MockUserRepository) Upsert(ctx context.Context, u *user.User) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.Users[u.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User")
}

// MockPublicationRepository is an in-memory resource.Repository for
// publications. FetchMany understands equality on user and membership on
// id, and orders by creation time, newest first.
type MockPublicationRepository struct {
	mu             sync.Mutex
	Docs           map[string]*publication.Publication
	FetchManyCalls int
	CreateError    error
	FetchError     error
}

func NewMockPublicationRepository() *MockPublicationRepository {
	return &MockPublicationRepository{Docs: make(map[string]*publication.Publication)}
}

func (m *MockPublicationRepository) Create(ctx context.Context, p *publication.Publication) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.Docs[p.ID] = &cp
	return nil
}

func (m *MockPublicationRepository) FetchOne(ctx context.Context, id string) (*publication.Publication, error) {
	if m.FetchError != nil {
		return nil, m.FetchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Docs[id]
	if !ok {
		return nil, errors.NotFound("publication")
	}
	cp := *p
	return &cp, nil
}

func (m *MockPublicationRepository) FetchMany(ctx context.Context, base query.Filter, plan query.Plan) ([]*publication.Publication, int64, error) {
	if m.FetchError != nil {
		return nil, 0, m.FetchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchManyCalls++

	var matched []*publication.Publication
	for _, p := range m.Docs {
		if matches(p, base.And(plan.Filter)) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if plan.Skip >= len(matched) {
		return nil, total, nil
	}
	end := plan.Skip + plan.Limit
	if plan.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[plan.Skip:end], total, nil
}

func (m *MockPublicationRepository) Update(ctx context.Context, p *publication.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Docs[p.ID]; !ok {
		return errors.NotFound("publication")
	}
	cp := *p
	m.Docs[p.ID] = &cp
	return nil
}

func (m *MockPublicationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Docs[id]; !ok {
		return errors.NotFound("publication")
	}
	delete(m.Docs, id)
	return nil
}

func matches(p *publication.Publication, filter query.Filter) bool {
	for _, pred := range filter {
		switch {
		case pred.Field == "user" && pred.Op == query.OpEq:
			if v, ok := pred.Value.(int64); !ok || v != p.User {
				return false
			}
		case pred.Field == "category" && pred.Op == query.OpEq:
			if v, ok := pred.Value.(string); !ok || v != p.Category {
				return false
			}
		case pred.Field == "id" && pred.Op == query.OpIn:
			ids, _ := pred.Value.([]string)
			found := false
			for _, id := range ids {
				if id == p.ID {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// MockFavoriteRepository is an in-memory favorite.Repository
type MockFavoriteRepository struct {
	mu           sync.Mutex
	Sets         map[int64][]string
	Publications *MockPublicationRepository
	ToggleError  error
}

func NewMockFavoriteRepository(publications *MockPublicationRepository) *MockFavoriteRepository {
	return &MockFavoriteRepository{
		Sets:         make(map[int64][]string),
		Publications: publications,
	}
}

func (m *MockFavoriteRepository) Toggle(ctx context.Context, userID int64, publicationID string) (*favorite.ToggleResult, error) {
	if m.ToggleError != nil {
		return nil, m.ToggleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.Sets[userID]
	for i, id := range set {
		if id == publicationID {
			m.Sets[userID] = append(set[:i:i], set[i+1:]...)
			return &favorite.ToggleResult{Added: false, IDs: append([]string{}, m.Sets[userID]...)}, nil
		}
	}

	if m.Publications != nil {
		if _, err := m.Publications.FetchOne(ctx, publicationID); err != nil {
			return nil, err
		}
	}
	m.Sets[userID] = append(set, publicationID)
	return &favorite.ToggleResult{Added: true, IDs: append([]string{}, m.Sets[userID]...)}, nil
}

func (m *MockFavoriteRepository) IDs(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Sets[userID]...), nil
}

func (m *MockFavoriteRepository) DeleteDangling(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for userID, set := range m.Sets {
		kept := set[:0:0]
		for _, id := range set {
			if _, err := m.Publications.FetchOne(ctx, id); err != nil {
				removed++
				continue
			}
			kept = append(kept, id)
		}
		m.Sets[userID] = kept
	}
	return removed, nil
}
