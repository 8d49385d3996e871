// Package chain is the approval-chain engine: the pure state machine that
// decides whose turn it is to sign, validates a signing actor against the
// chain, advances the cursor, and detects completion. It is the only code
// allowed to mutate a document's chain.
//
// A rank ("urutan") is resolved once any entry holding that rank has signed.
// Entries sharing a rank form an any-one-of-N group: the first signer to
// complete the rank resolves it, and the remaining co-signers are rejected
// with entity.ErrRankResolved. Sequential mode additionally gates signing on
// the cursor; parallel mode gates only on rank resolution.
package chain

import (
	"fmt"
	"sort"
	"time"

	"docuflow/internal/domain/entity"
)

// New validates a route request and builds the attached chain. The cursor
// starts at the lowest rank and every entry is stamped with dateSent.
func New(mode entity.SigningMode, entries []entity.RouteEntry, now time.Time) (entity.ApprovalChain, error) {
	if len(entries) == 0 {
		return entity.ApprovalChain{}, fmt.Errorf("%w: at least one signer is required", entity.ErrValidation)
	}

	seen := make(map[string]bool, len(entries))
	built := make([]entity.ApprovalEntry, 0, len(entries))
	for i, e := range entries {
		if e.SignerID == "" {
			return entity.ApprovalChain{}, fmt.Errorf("%w: signer %d: signer_id is required", entity.ErrValidation, i+1)
		}
		if seen[e.SignerID] {
			return entity.ApprovalChain{}, fmt.Errorf("%w: signer %d: duplicate signer %s", entity.ErrValidation, i+1, e.SignerID)
		}
		seen[e.SignerID] = true
		if e.Rank < 1 {
			return entity.ApprovalChain{}, fmt.Errorf("%w: signer %d: rank must be at least 1", entity.ErrValidation, i+1)
		}
		if e.Placement.Page < 1 {
			return entity.ApprovalChain{}, fmt.Errorf("%w: signer %d: placement page must be at least 1", entity.ErrValidation, i+1)
		}
		if e.Placement.Width <= 0 || e.Placement.Height <= 0 {
			return entity.ApprovalChain{}, fmt.Errorf("%w: signer %d: placement size must be positive", entity.ErrValidation, i+1)
		}
		sent := now
		built = append(built, entity.ApprovalEntry{
			Rank:      e.Rank,
			SignerID:  e.SignerID,
			DateSent:  &sent,
			Placement: e.Placement,
		})
	}

	sort.SliceStable(built, func(i, j int) bool { return built[i].Rank < built[j].Rank })

	return entity.ApprovalChain{
		Mode:    mode,
		Current: built[0].Rank,
		Entries: built,
	}, nil
}

// Resolved reports whether any entry at the given rank has signed.
func Resolved(c *entity.ApprovalChain, rank int) bool {
	for i := range c.Entries {
		if c.Entries[i].Rank == rank && c.Entries[i].Signed {
			return true
		}
	}
	return false
}

// lowestUnresolved returns the smallest rank not yet resolved, or false once
// every rank is resolved.
func lowestUnresolved(c *entity.ApprovalChain) (int, bool) {
	best, found := 0, false
	for i := range c.Entries {
		r := c.Entries[i].Rank
		if Resolved(c, r) {
			continue
		}
		if !found || r < best {
			best, found = r, true
		}
	}
	return best, found
}

// Complete reports whether every distinct rank is resolved.
func Complete(c *entity.ApprovalChain) bool {
	_, unresolved := lowestUnresolved(c)
	return !unresolved
}

// Eligible locates the actor's entry and validates that they may sign now.
// It returns the entry index, or one of entity.ErrNotEligible,
// ErrAlreadySigned, ErrRankResolved, ErrAlreadyComplete. It never mutates
// the chain.
func Eligible(c *entity.ApprovalChain, actorID string) (int, error) {
	idx := -1
	for i := range c.Entries {
		if c.Entries[i].SignerID == actorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, entity.ErrNotEligible
	}
	if c.Entries[idx].Signed {
		return -1, entity.ErrAlreadySigned
	}
	if Complete(c) {
		return -1, entity.ErrAlreadyComplete
	}
	if Resolved(c, c.Entries[idx].Rank) {
		return -1, entity.ErrRankResolved
	}
	if c.Mode == entity.SigningSequential && c.Entries[idx].Rank != c.Current {
		return -1, entity.ErrNotEligible
	}
	return idx, nil
}

// Advance marks the entry signed, moves the cursor to the next unresolved
// rank, and reports whether the chain is now complete. The index must come
// from Eligible.
func Advance(c *entity.ApprovalChain, idx int, now time.Time) bool {
	c.Entries[idx].Signed = true
	c.Entries[idx].DateSigned = &now

	next, ok := lowestUnresolved(c)
	if !ok {
		return true
	}
	c.Current = next
	return false
}
