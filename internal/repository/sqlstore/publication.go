package sqlstore

import (
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/resource"
)

type pub = publication.Publication

// PublicationSchema maps publications onto the publications table
var PublicationSchema = Schema[pub]{
	Name:    "publication",
	Table:   "publications",
	IDField: "id",
	New:     func() *pub { return &pub{} },
	ID:      func(p *pub) string { return p.ID },
	Columns: []Column[pub]{
		{Field: "id", Name: "id",
			Scan:  func(p *pub) any { return &p.ID },
			Value: func(p *pub) any { return p.ID }},
		{Field: "user", Name: "user_id",
			Scan:  func(p *pub) any { return &p.User },
			Value: func(p *pub) any { return p.User }},
		{Field: "title", Name: "title",
			Scan:  func(p *pub) any { return &p.Title },
			Value: func(p *pub) any { return p.Title }},
		{Field: "slug", Name: "slug",
			Scan:  func(p *pub) any { return &p.Slug },
			Value: func(p *pub) any { return p.Slug }},
		{Field: "description", Name: "description",
			Scan:  func(p *pub) any { return &p.Description },
			Value: func(p *pub) any { return p.Description }},
		{Field: "images", Name: "images",
			Scan:  func(p *pub) any { return listScanner{&p.Images} },
			Value: func(p *pub) any { return listValue(p.Images) }},
		{Field: "rating", Name: "rating",
			Scan:  func(p *pub) any { return &p.Rating },
			Value: func(p *pub) any { return p.Rating }},
		{Field: "refTime", Name: "ref_time",
			Scan:  func(p *pub) any { return nullMillisScanner{&p.RefTime} },
			Value: func(p *pub) any { return nullMillis(p.RefTime) }},
		{Field: "category", Name: "category",
			Scan:  func(p *pub) any { return &p.Category },
			Value: func(p *pub) any { return p.Category }},
		{Field: "refLink", Name: "ref_link",
			Scan:  func(p *pub) any { return &p.RefLink },
			Value: func(p *pub) any { return p.RefLink }},
		{Field: "createdAt", Name: "created_at",
			Scan:  func(p *pub) any { return millisScanner{&p.CreatedAt} },
			Value: func(p *pub) any { return millis(p.CreatedAt) }},
	},
}

// PublicationRepository stores publications
type PublicationRepository struct {
	*Table[publication.Publication]
}

// NewPublicationRepository creates a new publication repository
func NewPublicationRepository(db *DB) resource.Repository[publication.Publication] {
	return &PublicationRepository{Table: NewTable(db, PublicationSchema)}
}
