package merkle

/*

# Package merkle

Package merkle builds a binary merkle tree over an ordered list of leaf
digests, produces inclusion proofs for individual leaves and verifies those
proofs against a trusted root.

The tree is built once and never changes. A new dataset means a new tree and a
new root, there is no incremental update. This is what lets a Tree be shared
between any number of goroutines generating proofs without locking.

# Construction

Level 0 is the sequence of leaf digests in the order the owner chose. Each
following level pairs adjacent nodes left to right and hashes them

	parent = H(left || right)

until a single node, the root, remains. The index of a leaf is part of what the
root commits to: swapping two leaves changes the root.

# Padding

When a level has an odd number of nodes, the last node is paired with itself.
For three leaves a, b, c

	2          H(ab || cc)
	          /           \
	1     H(a||b)       H(c||c)
	      /    \        /    \
	0    a      b      c     (c)

The duplicated node is never stored, it is derived on demand by Build and by
GenerateProof. Because every node always has a sibling, the proof for every
leaf has exactly ProofLen(leafCount) = ceil(log2(leafCount)) steps.

The construction and the proof walk MUST use the same padding rule, otherwise
honest proofs fail and the tamper detection guarantee is lost. Both live in
this package and nowhere else.

A consequence of duplicate-last padding is that [a, b, c] and [a, b, c, c]
share a root. Callers that anchor the root should anchor the leaf count with it
and check proof lengths against that count, see ProofLen.

# Proofs

A Proof is the list of sibling digests from the leaf up to (not including) the
root. Each step records which side the sibling sits on relative to the node
being proven:

	Right: parent = H(current || sibling)
	Left:  parent = H(sibling || current)

For leaf b in the tree above the proof is [{a, Left}, {H(c||c), Right}].

# Parallelism

Within a level every parent depends only on two nodes of the level below, so a
level is split into chunks hashed by a bounded group of workers. Levels are
built strictly in order. Small levels are hashed inline, the goroutine overhead
is not worth it for them.
*/
