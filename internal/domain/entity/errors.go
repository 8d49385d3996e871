package entity

import "errors"

// Sentinel errors for the document workflow. Handlers map these onto HTTP
// statuses; usecases wrap them with context via fmt.Errorf and %w.
var (
	// Validation: rejected before any mutation.
	ErrValidation    = errors.New("validation failed")
	ErrMissingFields = errors.New("missing required fields")
	ErrMissingFile   = errors.New("missing file")

	// Authorization: generic denial, no chain-state leakage.
	ErrAccessDenied = errors.New("access denied")
	ErrNotOwner     = errors.New("not the document owner")
	ErrNotEligible  = errors.New("actor is not an eligible signer")

	// State conflict: idempotent rejections, safe to retry after re-check.
	ErrAlreadySigned   = errors.New("entry already signed")
	ErrRankResolved    = errors.New("rank already resolved")
	ErrAlreadyComplete = errors.New("document already complete")
	ErrNotRouted       = errors.New("document has no approval chain")
	ErrAlreadyRouted   = errors.New("document already routed")
	ErrConflict        = errors.New("concurrent update conflict")

	// Resource missing: distinguished from state conflicts so callers can
	// prompt a re-upload instead of a state re-check.
	ErrNotFound              = errors.New("document not found")
	ErrFileMissing           = errors.New("document file missing")
	ErrMissingSignatureImage = errors.New("signature image not found")

	// Stamping.
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrInvalidPlacement       = errors.New("invalid stamp placement")
)
