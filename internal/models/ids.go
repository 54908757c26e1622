package models

import "github.com/google/uuid"

// importedNamespace seeds deterministic ids for records synthesized during
// legacy migration, so repeated migrations of the same document agree.
var importedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("triplog:imported"))

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.New().String()
}

// DerivedID returns a stable identifier for the given name.
func DerivedID(name string) string {
	return uuid.NewSHA1(importedNamespace, []byte(name)).String()
}
