package domain

// ShareGrant gives one recipient user read access to one credential.
// It is a weak relation: the owner keeps ownership and all write rights,
// and may revoke the grant at any time. At most one grant exists per
// (credential, recipient) pair; the store enforces this with a unique
// constraint, not just a precheck.
type ShareGrant struct {
	ID           string `json:"id"`
	CredentialID string `json:"passwordId"`
	RecipientID  string `json:"userId"`
	Timestamps
}

// SharedBy identifies the owner of a credential reached through a grant,
// shown to recipients in their "shared with me" view.
type SharedBy struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SharedCredential is a credential reached through a share grant,
// carrying the owner's identity for display.
type SharedCredential struct {
	Credential
	SharedBy SharedBy
}

// GrantRecipient names one recipient of a grant on one credential,
// used to render the "shared with" list on owned credentials.
type GrantRecipient struct {
	CredentialID string
	UserID       string
	Email        string
}
