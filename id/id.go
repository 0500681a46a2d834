// Package id mints the TypeID strings used as message and lease handles by
// the memory and redis transports, e.g. "msg_01h2xcejqtf2nbrexx3vqjhp41".
// The Cloudflare transport passes its own opaque strings through instead.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies what a handle refers to.
type Prefix string

const (
	PrefixMessage Prefix = "msg"
	PrefixLease   Prefix = "lease"
)

func generate(p Prefix) string {
	tid, err := typeid.Generate(string(p))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", p, err))
	}
	return tid.String()
}

// NewMessage returns a fresh message handle.
func NewMessage() string { return generate(PrefixMessage) }

// NewLease returns a fresh lease handle. Each delivery gets its own.
func NewLease() string { return generate(PrefixLease) }

// PrefixOf parses s and returns its prefix.
func PrefixOf(s string) (Prefix, error) {
	tid, err := typeid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("id: parse %q: %w", s, err)
	}
	return Prefix(tid.Prefix()), nil
}

// IsLease reports whether s is a well-formed lease handle.
func IsLease(s string) bool {
	p, err := PrefixOf(s)
	return err == nil && p == PrefixLease
}
