package merkle

import (
	"encoding/hex"
	"fmt"
	"hash"
	"testing"

	"github.com/stretchr/testify/require"
)

// numberedLeafBytes returns n distinct leaf encodings
func numberedLeafBytes(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("key-%d:value-%d", i, i))
	}
	return out
}

func hashAll(hasher hash.Hash, leafBytes [][]byte) []Digest {
	out := make([]Digest, len(leafBytes))
	for i, b := range leafBytes {
		out[i] = HashLeaf(hasher, b)
	}
	return out
}

func mustHasher(t *testing.T, alg Algorithm) hash.Hash {
	h, err := alg.NewHasher()
	require.NoError(t, err)
	return h
}

// reversedHexDigest parses a byte reversed hex digest, the display order used
// for decred chain hashes.
func reversedHexDigest(t *testing.T, s string) Digest {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, DigestSize)
	var d Digest
	for i := range b {
		d[i] = b[len(b)-1-i]
	}
	return d
}

// decredBlockLeaves are the transaction hashes of decred mainnet block 257,
// in byte reversed display order.
var decredBlockLeaves = []string{
	"46670d055dae85e8f9eceb5d30b1433c7232d3b09068fbde4741db3714dafdb7",
	"9518f53fccc008baf771a6610d4ac506a931286b7e67d98d49bde68e3dec10aa",
	"c9bf74b6da5a82e5f720859f9b7730aab59e774fb1c22bef534e60206c1f87b4",
	"c0657dd580e76866de1a008e691ffcafe790deb733ec79b7b4dea64ab4abd002",
	"7ce1b2613e21f40d7076c1b2283f363134be992b5fd648a928f023e9cf42de5e",
	"2f568d89cde2957d68a27f41854245b73c1469314e7f31783614bf1919761bcf",
	"e146022bebf7a4273a61084ce20ee5c03f94afbe6744ed48e436169a147a1d1c",
	"a714a3a6f16b18c5b82321b9425a4205b205afd4d83d3f392d6a36af4222c9dd",
	"25f65b3814c55de20576d35fc68ecc202bf058352746c9e2347f7e59f5a2c677",
	"81120d7af7f8d37287ecf558a2d47f1e631bec486e485cb4aab4996a1c2ee7ab",
	"0e3e1ffd23240dbc3e148754eb63faa784e9d338f196cf77b5d821749282fb0c",
	"91d53551633e8b7a894b4e7277616f65203e997c4346895d234a8a2dcea6c849",
	"3caf3db1714a8f7c9b847be782ee2750f3f7073eadbc43a309c800a3d6b1c887",
	"41161b6e5cc65bee31a26b1603e5d701151d9778de6cd0044fb5533dd0da7fe7",
	"a1273c356109ff1d6145eca2ed14b1c5025f0024bf18ae249b8d185b4192cf6e",
	"ceed5ebb8faa597795d04fe06c404e32e72d9d6db43d57b41affc842c402a5c8",
	"7c756776f01aa0e2b115bbef0527a12fe03aadf598fdbf99576dc973fbc42cdc",
	"472c27828b8ecd51f038a676aa9dc2e8d144cc292885e342a37852ec6d0d78a7",
	"bbc48709276a223b6689d181aacfd8684fbb5a91bd7c890e487a3b73ab4b43d5",
	"6c796c53a51ecf8fa0dd7feffbf3c1ca277b17533bb6fc87645527471c2d5499",
	"bec32f1016fd40f2adac39dfbcedb3e45b6d7f9b37cb340d22bce14015759632",
	"06024a8ddaafa5c4b448168bebd8f37d7fb15eef079933579cf29b45dd40edfb",
}

func decredDigests(t *testing.T, hexes []string) []Digest {
	out := make([]Digest, len(hexes))
	for i, s := range hexes {
		out[i] = reversedHexDigest(t, s)
	}
	return out
}
