package anchor

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	dtcose "github.com/datatrails/go-datatrails-common/cose"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/veraison/go-cose"
)

const (
	CheckpointContentType = "application/vnd.merklekv.checkpoint+cbor"
)

// SignedAnchor signs every checkpoint as a COSE Sign1 message before it is
// appended to the log, and verifies every entry it reads back. The issuer,
// the commitment id (as subject) and the signing key are carried as CWT
// claims in the protected header.
type SignedAnchor struct {
	log       logger.Logger
	entries   EntryLog
	codec     dtcbor.CBORCodec
	signer    cose.Signer
	publicKey *ecdsa.PublicKey
	issuer    string
	kid       string
}

type SignedAnchorOption func(*SignedAnchor)

// WithKeyIdentifier sets the kid protected header on published checkpoints.
func WithKeyIdentifier(kid string) SignedAnchorOption {
	return func(a *SignedAnchor) {
		a.kid = kid
	}
}

// NewSignedAnchor returns an anchor that signs with signer and accepts only
// entries that verify with publicKey and name issuer.
func NewSignedAnchor(
	log logger.Logger, entries EntryLog, signer cose.Signer, publicKey *ecdsa.PublicKey, issuer string,
	opts ...SignedAnchorOption,
) (*SignedAnchor, error) {
	codec, err := NewCheckpointCodec()
	if err != nil {
		return nil, err
	}
	a := &SignedAnchor{
		log:       log,
		entries:   entries,
		codec:     codec,
		signer:    signer,
		publicKey: publicKey,
		issuer:    issuer,
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// NewES256 returns the COSE signer for a P-256 key.
func NewES256(key *ecdsa.PrivateKey) (cose.Signer, error) {
	return cose.NewSigner(cose.AlgorithmES256, key)
}

// trustedKey provides the anchor's own public key to VerifyWithProvider, so
// an entry is never verified with the key it carries in its claims.
type trustedKey struct {
	publicKey *ecdsa.PublicKey
}

func (k trustedKey) PublicKey() (crypto.PublicKey, cose.Algorithm, error) {
	return k.publicKey, cose.AlgorithmES256, nil
}

func newDecOptions() []dtcose.SignOption {
	return []dtcose.SignOption{dtcose.WithDecOptions(dtcbor.NewDeterministicDecOpts())}
}

// Sign1 returns the encoded COSE Sign1 message for cp. The checkpoint's
// commitment id is the subject.
func (a *SignedAnchor) Sign1(cp Checkpoint) ([]byte, error) {
	payload, err := a.codec.MarshalCBOR(cp)
	if err != nil {
		return nil, err
	}

	protected := cose.ProtectedHeader{
		cose.HeaderLabelAlgorithm:   a.signer.Algorithm(),
		cose.HeaderLabelContentType: CheckpointContentType,
		dtcose.HeaderLabelCWTClaims: dtcose.NewCNFClaim(
			a.issuer, cp.CommitmentID, a.kid, a.signer.Algorithm(), *a.publicKey),
	}
	if a.kid != "" {
		protected[cose.HeaderLabelKeyID] = []byte(a.kid)
	}
	msg := cose.Sign1Message{
		Headers: cose.Headers{Protected: protected},
		Payload: payload,
	}

	if err = msg.Sign(rand.Reader, nil, a.signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

func (a *SignedAnchor) Publish(ctx context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	data, err := a.Sign1(cp)
	if err != nil {
		return fmt.Errorf("sign checkpoint: %w", err)
	}
	seq, err := a.entries.Append(ctx, data)
	if err != nil {
		return err
	}
	a.log.Infof("anchored signed checkpoint %d: commitment %s, %d leaves", seq, cp.CommitmentID, cp.LeafCount)
	return nil
}

func (a *SignedAnchor) Current(ctx context.Context) (Checkpoint, error) {
	data, found, err := a.entries.Last(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	if !found {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return a.VerifySigned(data)
}

// History verifies and returns every checkpoint, oldest first. A single
// entry that fails verification fails the whole history.
func (a *SignedAnchor) History(ctx context.Context) ([]Checkpoint, error) {
	all, err := a.entries.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Checkpoint, 0, len(all))
	for i, data := range all {
		cp, err := a.VerifySigned(data)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

// VerifySigned checks the signature and CWT claims of an encoded Sign1
// message and returns the checkpoint it carries.
func (a *SignedAnchor) VerifySigned(data []byte) (Checkpoint, error) {
	signed, err := dtcose.NewCoseSign1MessageFromCBOR(data, newDecOptions()...)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if err = signed.VerifyWithProvider(trustedKey{publicKey: a.publicKey}, nil); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	claims, err := signed.CWTClaimsFromProtectedHeader()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if claims.Issuer != a.issuer {
		return Checkpoint{}, fmt.Errorf("%w: issuer %q, want %q", ErrSignatureInvalid, claims.Issuer, a.issuer)
	}

	var cp Checkpoint
	if err := a.codec.UnmarshalInto(signed.Payload, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", ErrCheckpointInvalid, err)
	}
	if cp.CommitmentID != claims.Subject {
		return Checkpoint{}, fmt.Errorf("%w: subject %q does not name commitment %q", ErrSignatureInvalid, claims.Subject, cp.CommitmentID)
	}
	if err := cp.Validate(); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}
