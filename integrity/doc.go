/*
Package integrity ties the owner, the untrusted store, the anchor and the
verifying client together.

The owner collects records in a fixed order and builds a Commitment: the
merkle tree over the canonical leaf encodings plus the key to index table
needed to produce proofs later. The records are uploaded to the store and a
Checkpoint naming the root and leaf count is published to the anchor. Upload
and publish are separate failure domains and either can be retried on its
own.

A client fetches a value from the store, a proof from any ProofSource, and the
current checkpoint from the anchor. The value is trusted only if its leaf
encoding, folded with the proof, reproduces the anchored root. Neither the
store nor the proof source is trusted. A proof must also be exactly as long as
the anchored leaf count requires, which stops an extended tree such as
[a, b, c, c] from standing in for [a, b, c].

Verification failure is reported in QueryResult.Verified, never as an error.
Errors are reserved for misuse and for store or anchor failures the caller
may want to retry.
*/
package integrity
