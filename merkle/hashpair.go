package merkle

import "hash"

// HashLeaf returns H(leafBytes)
// ** the hasher is reset **
func HashLeaf(hasher hash.Hash, leafBytes []byte) Digest {
	hasher.Reset()
	hasher.Write(leafBytes)
	return sum(hasher)
}

// HashPair returns H(left || right)
// ** the hasher is reset **
func HashPair(hasher hash.Hash, left, right Digest) Digest {
	hasher.Reset()
	hasher.Write(left[:])
	hasher.Write(right[:])
	return sum(hasher)
}

func sum(hasher hash.Hash) Digest {
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}
