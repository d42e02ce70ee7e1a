package merkle

import (
	"encoding/hex"
	"fmt"
)

// DigestSize is the width, in bytes, of every leaf, node and root digest.
const DigestSize = 32

// Digest is the fixed width output of the tree hash function.
type Digest [DigestSize]byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero is true for the zero value. No real hash produces it.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	v, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDigest parses the hex form produced by String.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return DigestFromBytes(b)
}

// DigestFromBytes copies b into a Digest. b must be exactly DigestSize long.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDigest, len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}
