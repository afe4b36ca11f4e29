package favorite

import "time"

// Favorite links a user to a publication they marked
type Favorite struct {
	UserID        int64     `json:"user_id"`
	PublicationID string    `json:"publication_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToggleResult is the outcome of a toggle
type ToggleResult struct {
	// Added is true when the publication entered the set, false when it left
	Added bool `json:"added"`
	// IDs is the updated set in insertion order
	IDs []string `json:"favorites"`
}
