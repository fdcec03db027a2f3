package domain

import "strings"

// TokenId is an opaque, case-insensitive identifier. Callers pass tokens in
// whatever case they like; every comparison and map key inside the router
// goes through Normalize first so "0xAbC" and "0xabc" are the same token.
type TokenId string

// Normalize returns the canonical form used for equality, hashing and map
// keys. It is exported so collaborators (PoolSource, PoolDirectory, the
// HTTP surface) can key their own structures the same way the router does.
func (t TokenId) Normalize() TokenId {
	return TokenId(strings.ToLower(strings.TrimSpace(string(t))))
}

func (t TokenId) String() string { return string(t) }

// PoolId is an opaque, case-insensitive identifier for a specific pool
// instance, distinct from the TokenIds of the two tokens it holds.
type PoolId string

// Normalize returns the canonical form used for equality, hashing and map
// keys.
func (p PoolId) Normalize() PoolId {
	return PoolId(strings.ToLower(strings.TrimSpace(string(p))))
}

func (p PoolId) String() string { return string(p) }

// SortTokens returns (a, b) reordered so the lexicographically smaller
// normalised token comes first. It fails InvalidArgument if a and b
// normalise to the same token.
func SortTokens(a, b TokenId) (TokenId, TokenId, error) {
	na, nb := a.Normalize(), b.Normalize()
	if na == nb {
		return "", "", NewError("domain.sort_tokens", InvalidArgument, "tokens must be distinct, got %q twice", na)
	}
	if na < nb {
		return na, nb, nil
	}
	return nb, na, nil
}
