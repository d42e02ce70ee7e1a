// Package leaf defines the canonical byte encoding of a key/value record.
//
// The encoding is what gets hashed to form a merkle leaf, so it must be
// identical for the owner building the tree and for every client verifying a
// value fetched from the store. Each field is length prefixed with a big endian
// uint64, so no choice of separator characters inside a key or value can make
// two different records encode to the same bytes:
//
//	uint64be(len(key)) || key || uint64be(len(value)) || value
//
// "a","b:c" and "a:b","c" encode differently even though a naive
// "key:value" join would collide.
package leaf
