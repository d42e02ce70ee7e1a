package merkle

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/decred/dcrd/crypto/blake256"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Algorithm names the hash function used for leaves and interior nodes. All
// supported algorithms produce DigestSize bytes.
type Algorithm string

const (
	SHA256   Algorithm = "sha256"
	SHA3     Algorithm = "sha3-256"
	Blake3   Algorithm = "blake3"
	Blake256 Algorithm = "blake256"

	DefaultAlgorithm = SHA256
)

// HashFactory returns a new, independent hasher. Build calls it once per
// worker so hashers are never shared between goroutines.
type HashFactory func() hash.Hash

var factories = map[Algorithm]HashFactory{
	SHA256:   sha256.New,
	SHA3:     sha3.New256,
	Blake3:   func() hash.Hash { return blake3.New(DigestSize, nil) },
	Blake256: func() hash.Hash { return blake256.New() },
}

// Algorithms lists the supported algorithms in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA3, Blake3, Blake256}
}

// ParseAlgorithm accepts the names above. The empty string selects the
// default.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return DefaultAlgorithm, nil
	}
	alg := Algorithm(name)
	if _, ok := factories[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return alg, nil
}

// Factory returns the hasher constructor for the algorithm.
func (a Algorithm) Factory() (HashFactory, error) {
	if a == "" {
		a = DefaultAlgorithm
	}
	f, ok := factories[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
	return f, nil
}

// NewHasher returns a fresh hasher for the algorithm.
func (a Algorithm) NewHasher() (hash.Hash, error) {
	f, err := a.Factory()
	if err != nil {
		return nil, err
	}
	return f(), nil
}

func (a Algorithm) String() string {
	if a == "" {
		return string(DefaultAlgorithm)
	}
	return string(a)
}
