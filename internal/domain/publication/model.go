package publication

import (
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// Publication is a field-notes entry with up to three images
type Publication struct {
	ID          string     `json:"id"`
	User        int64      `json:"user" validate:"required,gt=0"`
	Owner       *Owner     `json:"owner,omitempty"`
	Title       string     `json:"title" validate:"required,min=3,max=240"`
	Slug        string     `json:"slug"`
	Description string     `json:"description" validate:"required,max=8000"`
	Images      []string   `json:"images" validate:"max=3"`
	Rating      float64    `json:"rating"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    string     `json:"category" validate:"category"`
	RefLink     string     `json:"refLink" validate:"required"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Owner is the public summary of the user owning a publication
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Categories
const (
	CategoryChasse      = "chasse"
	CategoryPeche       = "peche"
	CategoryEnvironment = "environnement"
	CategoryNutrition   = "nutrition"
	CategoryLaboratoire = "laboratoire"
	CategoryTraditions  = "traditions-loisirs"
	CategoryBiologie    = "biologie"
	CategoryProduits    = "produits"
	CategoryAutre       = "autre"
)

// Categories lists every accepted category
var Categories = []string{
	CategoryChasse,
	CategoryPeche,
	CategoryEnvironment,
	CategoryNutrition,
	CategoryLaboratoire,
	CategoryTraditions,
	CategoryBiologie,
	CategoryProduits,
	CategoryAutre,
}

// CategoryTag is the validation tag checking Category
const CategoryTag = "category"

// Patch holds the fields a modification may change. Nil fields are left
// untouched; a non-nil Images replaces the whole list.
type Patch struct {
	Title       *string
	Description *string
	Images      []string
	Rating      *float64
	RefTime     *time.Time
	Category    *string
	RefLink     *string
}

// Apply copies the set fields of p onto doc
func (p Patch) Apply(doc *Publication) error {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.Images != nil {
		doc.Images = append([]string(nil), p.Images...)
	}
	if p.Rating != nil {
		doc.Rating = *p.Rating
	}
	if p.RefTime != nil {
		t := p.RefTime.UTC()
		doc.RefTime = &t
	}
	if p.Category != nil {
		doc.Category = *p.Category
	}
	if p.RefLink != nil {
		doc.RefLink = *p.RefLink
	}
	return nil
}

// QueryOptions describes the listing fields of publications
var QueryOptions = query.Options{
	Fields: map[string]query.Kind{
		"id":          query.KindString,
		"user":        query.KindInteger,
		"title":       query.KindString,
		"slug":        query.KindString,
		"description": query.KindString,
		"rating":      query.KindNumber,
		"refTime":     query.KindTime,
		"category":    query.KindString,
		"refLink":     query.KindString,
		"createdAt":   query.KindTime,
	},
	SelectOnly:  []string{"images"},
	IDField:     "id",
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
	PageSize:    query.DefaultPageSize,
	MaxPageSize: query.MaxPageSize,
}

// Kind wires publications into the generic resource service
var Kind = resource.Kind[Publication]{
	Name:     "publication",
	ID:       func(p *Publication) string { return p.ID },
	SetID:    func(p *Publication, id string) { p.ID = id },
	Owner:    func(p *Publication) int64 { return p.User },
	SetOwner: func(p *Publication, id int64) { p.User = id },
	BeforeCreate: func(p *Publication, now time.Time) {
		p.Slug = Slugify(p.Title)
		if p.Category == "" {
			p.Category = CategoryAutre
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	},
	Query: QueryOptions,
}
