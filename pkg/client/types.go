package client

import "time"

// Publication is a field-notes entry
type Publication struct {
	ID          string     `json:"id"`
	User        int64      `json:"user"`
	Owner       *Owner     `json:"owner,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Rating      float64    `json:"rating"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    string     `json:"category"`
	RefLink     string     `json:"refLink"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Owner is the public summary of a publication's author
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// ToggleResult is the outcome of a favorite toggle
type ToggleResult struct {
	Added     bool     `json:"added"`
	Favorites []string `json:"favorites"`
}

// ListOptions contains the listing parameters understood by the API
type ListOptions struct {
	Page   int               // Page number (1-based)
	Limit  int               // Items per page
	Sort   []string          // Sort keys, "-" prefix for descending
	Fields []string          // Projection
	Filter map[string]string // Raw filters such as "rating[gte]" => "3"
}

// PublicationList is a page of publications
type PublicationList struct {
	Items        []Publication
	Results      int
	TotalResults int64
	TotalPages   int
	Page         int
}

// HealthResponse represents the readiness check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Storage  string `json:"storage,omitempty"`
}
