package entity

import (
	"fmt"
	"time"
)

// Document status values. Transitions are monotonic:
// saved -> sent -> complete, never backward.
type Status string

const (
	StatusSaved    Status = "saved"
	StatusSent     Status = "sent"
	StatusComplete Status = "complete"
)

// Access visibility policy for a document.
type Access string

const (
	AccessPublic  Access = "public"
	AccessPrivate Access = "private"
	AccessRole    Access = "role"
)

// SigningMode controls how the approval chain is gated.
type SigningMode string

const (
	SigningSequential SigningMode = "sequential"
	SigningParallel   SigningMode = "parallel"
)

// Role is the resolved role claim attached to an authenticated actor.
type Role string

const RoleAdmin Role = "admin"

// Actor is the denormalized identity claim passed in by the boundary layer.
// The engine trusts it as given; credential verification happens upstream.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Division is the closed set of organizational division codes.
type Division string

const (
	DivisionMKT     Division = "MKT"
	DivisionFIN     Division = "FIN"
	DivisionCHC     Division = "CHC"
	DivisionPROD    Division = "PROD"
	DivisionOPS     Division = "OPS"
	DivisionITINFRA Division = "ITINFRA"
	DivisionLGL     Division = "LGL"
	DivisionDIR     Division = "DIR"
)

var divisions = map[Division]bool{
	DivisionMKT: true, DivisionFIN: true, DivisionCHC: true, DivisionPROD: true,
	DivisionOPS: true, DivisionITINFRA: true, DivisionLGL: true, DivisionDIR: true,
}

// ParseDivision validates a division code at the boundary.
func ParseDivision(s string) (Division, error) {
	d := Division(s)
	if !divisions[d] {
		return "", fmt.Errorf("%w: division %q", ErrValidation, s)
	}
	return d, nil
}

// DocType is the closed set of document type codes used in title numbering.
type DocType string

var docTypes = map[DocType]bool{
	"ADD": true, "BA": true, "SKU": true, "JO": true, "KK": true, "KW": true,
	"MOM": true, "MOU": true, "NC": true, "ND": true, "PENG": true, "PEM": true,
	"PB": true, "PM": true, "PN": true, "NDA": true, "PKS": true, "PR": true,
	"PNW": true, "PO": true, "PT": true, "SK": true, "SKT": true, "SP": true,
	"SPI": true, "SPK": true, "SPR": true, "SR": true, "SE": true, "PNG": true,
	"SERT": true, "TAG": true, "U": true, "ST": true, "PQ": true, "PJ": true,
	"CL": true,
}

// ParseDocType validates a document type code at the boundary.
func ParseDocType(s string) (DocType, error) {
	t := DocType(s)
	if !docTypes[t] {
		return "", fmt.Errorf("%w: document type %q", ErrValidation, s)
	}
	return t, nil
}

// ParseAccess validates an access policy value at the boundary.
func ParseAccess(s string) (Access, error) {
	switch a := Access(s); a {
	case AccessPublic, AccessPrivate, AccessRole:
		return a, nil
	}
	return "", fmt.Errorf("%w: access %q", ErrValidation, s)
}

// ParseSigningMode validates a signing mode value at the boundary.
func ParseSigningMode(s string) (SigningMode, error) {
	switch m := SigningMode(s); m {
	case SigningSequential, SigningParallel:
		return m, nil
	}
	return "", fmt.Errorf("%w: signing mode %q", ErrValidation, s)
}

// Placement locates where a signer's stamp is drawn: 1-based page plus
// coordinates and size in the page's coordinate space. Immutable once routed.
type Placement struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ApprovalEntry is one required signer within a document's chain. Rank
// ("urutan") orders the chain; entries may share a rank to express an
// any-one-of-N co-signer group.
type ApprovalEntry struct {
	ID         int64      `json:"id"`
	Rank       int        `json:"rank"`
	SignerID   string     `json:"signer_id"`
	Signed     bool       `json:"signed"`
	DateSent   *time.Time `json:"date_sent,omitempty"`
	DateSigned *time.Time `json:"date_signed,omitempty"`
	Placement  Placement  `json:"placement"`
}

// ApprovalChain is the embedded signing ledger of a document. Current is the
// smallest rank not yet resolved; it only moves forward.
type ApprovalChain struct {
	Mode    SigningMode     `json:"mode"`
	Current int             `json:"current"`
	Entries []ApprovalEntry `json:"entries"`
}

// Document is the aggregate root. The chain and audit trail are owned by
// value; the binary body lives in the artifact store keyed by ID.
type Document struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Division     Division      `json:"division"`
	Type         DocType       `json:"type"`
	Access       Access        `json:"access"`
	UploaderID   string        `json:"uploader_id"`
	UploaderRole Role          `json:"uploader_role"`
	Status       Status        `json:"status"`
	Chain        ApprovalChain `json:"chain"`
	DateExpired  *time.Time    `json:"date_expired,omitempty"`
	DateComplete *time.Time    `json:"date_complete,omitempty"`
	Version      int64         `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BlobMeta accompanies a binary download so clients can render signing
// progress without a second round trip.
type BlobMeta struct {
	CurrentRank int         `json:"current_rank"`
	SigningMode SigningMode `json:"signing_mode"`
}
