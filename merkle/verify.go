package merkle

import (
	"hash"
)

// Verify returns true if leafBytes, hashed and combined with proof, reproduces
// trustedRoot.
//
// A proof that simply doesn't match is a normal false result, it is how
// tampering shows up. An error is returned only when the proof is malformed.
func Verify(hasher hash.Hash, leafBytes []byte, proof Proof, trustedRoot Digest) (bool, error) {
	if err := proof.Validate(); err != nil {
		return false, err
	}
	return VerifyDigest(hasher, HashLeaf(hasher, leafBytes), proof, trustedRoot)
}

// VerifyDigest is Verify for callers that already hold the leaf digest.
func VerifyDigest(hasher hash.Hash, leafDigest Digest, proof Proof, trustedRoot Digest) (bool, error) {
	root, err := IncludedRoot(hasher, leafDigest, proof)
	if err != nil {
		return false, err
	}
	return root == trustedRoot, nil
}

// IncludedRoot folds proof over leafDigest and returns the root it commits to.
func IncludedRoot(hasher hash.Hash, leafDigest Digest, proof Proof) (Digest, error) {
	if err := proof.Validate(); err != nil {
		return Digest{}, err
	}
	root := leafDigest
	for _, step := range proof {
		if step.Side == Right {
			// Set `root` to `H(root || sibling)`
			root = HashPair(hasher, root, step.Sibling)
		} else {
			// Set `root` to `H(sibling || root)`
			root = HashPair(hasher, step.Sibling, root)
		}
	}
	return root, nil
}
