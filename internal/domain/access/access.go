// Package access is the access-control gate: pure visibility and mutation
// policy over a (document, actor) pair. Signing eligibility is deliberately
// not decided here; it is strictly chain-driven.
package access

import "docuflow/internal/domain/entity"

// CanView reports whether the actor may read the document and its binary.
// The uploader and admins always can; otherwise the access policy decides.
func CanView(doc *entity.Document, actor entity.Actor) bool {
	if doc.Access == entity.AccessPublic {
		return true
	}
	if actor.IsAdmin() {
		return true
	}
	if doc.Access == entity.AccessRole && actor.Role == doc.UploaderRole {
		return true
	}
	return actor.ID == doc.UploaderID
}

// CanModify reports whether the actor may update or delete the document.
func CanModify(doc *entity.Document, actor entity.Actor) bool {
	return actor.IsAdmin() || actor.ID == doc.UploaderID
}
