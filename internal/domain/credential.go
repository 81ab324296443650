package domain

// Credential is a stored login record owned by exactly one user.
//
// Secret always holds the encrypted token form (hex(iv):hex(ciphertext))
// when the credential is at rest. The service layer decrypts on the way
// out and encrypts on the way in; the store never sees plaintext.
type Credential struct {
	ID       string `json:"id"`
	OwnerID  string `json:"userId"`
	Title    string `json:"title"`
	Username string `json:"username"`
	Secret   string `json:"-"` // cipher token at rest, exposed via DTOs only
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Timestamps
}

// IsOwnedBy reports whether the given user owns this credential.
// Ownership is exclusive and is the sole source of write rights.
func (c *Credential) IsOwnedBy(userID string) bool {
	return c.OwnerID == userID
}
