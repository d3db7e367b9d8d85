// Package gitlib wraps the libgit2 operations repometrics needs to keep a
// local snapshot of a remote repository: clone, fetch and fast-forward.
package gitlib

import (
	"encoding/hex"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 object id in bytes.
const HashSize = 20

// Hash is a git object id.
type Hash [HashSize]byte

// HashFromOid converts a libgit2 Oid to Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	if oid != nil {
		copy(h[:], oid[:])
	}

	return h
}

// String returns the 40-character hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero id.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ToOid converts h back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
