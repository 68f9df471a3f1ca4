// Package identity resolves the owner scoping every record to one
// authenticated user, falling back to a fixed sentinel so the app stays
// usable before authentication completes.
// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"github.com/google/uuid"
)

// SentinelOwner is the fixed identity substituted when no well-formed
// authenticated identity is available (pre-authentication and development
// usage). Remote calls under the sentinel are refused unless explicitly
// allowed by configuration.
const SentinelOwner = "00000000-0000-0000-0000-000000000001"

// EffectiveOwner returns raw when it is a well-formed owner identity, else
// the sentinel.
func EffectiveOwner(raw string) string {
	if IsWellFormed(raw) {
		return raw
	}
	return SentinelOwner
}

// IsWellFormed reports whether raw is a valid owner identity (a UUID, as
// assigned by the remote store's auth service).
func IsWellFormed(raw string) bool {
	return uuid.Validate(raw) == nil
}

// IsSentinel reports whether owner is the pre-authentication sentinel.
func IsSentinel(owner string) bool {
	return owner == SentinelOwner
}

// Context is the authentication state consumed by the reconciliation
// session: the current owner (possibly empty) and whether authentication is
// still resolving. A resolving context keeps the session uninitialized.
type Context struct {
	Owner     string
	Resolving bool
}

// Effective returns the effective owner for this context.
func (c Context) Effective() string { return EffectiveOwner(c.Owner) }
