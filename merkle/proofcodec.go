package merkle

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown side %d", ErrInvalidProof, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*s = Left
	case "right":
		*s = Right
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidProof, string(text))
	}
	return nil
}

// DecodeProofJSON decodes the JSON form of a proof,
//
//	[{"sibling": "<64 hex chars>", "side": "left"|"right"}, ...]
//
// Every failure, including a wrong digest length or an unknown side, is
// reported as ErrInvalidProof.
func DecodeProofJSON(data []byte) (Proof, error) {
	var p Proof
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// cborStep is the wire form of a ProofStep, encoded as the array
// [side, sibling].
type cborStep struct {
	_       struct{} `cbor:",toarray"`
	Side    uint8
	Sibling []byte
}

var (
	proofEncMode cbor.EncMode
	proofDecMode cbor.DecMode
)

func init() {
	var err error
	if proofEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if proofDecMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// MarshalCBOR encodes the proof as an array of [side, sibling] pairs.
func (p Proof) MarshalCBOR() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	steps := make([]cborStep, len(p))
	for i, step := range p {
		steps[i] = cborStep{Side: uint8(step.Side), Sibling: step.Sibling[:]}
	}
	return proofEncMode.Marshal(steps)
}

// DecodeProofCBOR decodes the output of Proof.MarshalCBOR. Malformed steps
// are rejected with ErrInvalidProof.
func DecodeProofCBOR(data []byte) (Proof, error) {
	var steps []cborStep
	if err := proofDecMode.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	p := make(Proof, len(steps))
	for i, s := range steps {
		d, err := DigestFromBytes(s.Sibling)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidProof, i, err)
		}
		p[i] = ProofStep{Sibling: d, Side: Side(s.Side)}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Proof) UnmarshalCBOR(data []byte) error {
	v, err := DecodeProofCBOR(data)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
