package domain

// Tag is a user-scoped label for credentials.
// (Name, OwnerID) is unique: two users can each have a "work" tag,
// one user cannot have two.
type Tag struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"userId"`
	Timestamps
}
