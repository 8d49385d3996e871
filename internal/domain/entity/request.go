package entity

import "time"

// CreateDocumentRequest is the decoded upload handed to the engine by the
// delivery layer: form fields plus the staged file bytes.
type CreateDocumentRequest struct {
	Content     string     `json:"content"`
	Division    string     `json:"division"`
	Type        string     `json:"type"`
	Access      string     `json:"access"`
	DateExpired *time.Time `json:"date_expired,omitempty"`
	Filename    string     `json:"filename"`
	File        []byte     `json:"-"`
}

// RouteEntry is one requested signer with their stamp placement.
type RouteEntry struct {
	Rank      int       `json:"rank"`
	SignerID  string    `json:"signer_id"`
	Placement Placement `json:"placement"`
}

// RouteRequest attaches an approval chain to a saved document.
type RouteRequest struct {
	SigningMode string       `json:"signing_mode"`
	Entries     []RouteEntry `json:"entries"`
}

// DocumentFilter narrows list queries. Zero values mean "no filter".
type DocumentFilter struct {
	Statuses   []Status
	Division   Division
	Type       DocType
	Search     string
	UploaderID string
	Limit      int
	Offset     int
}
