package anchor

import (
	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
)

// NewCheckpointCodec returns the deterministic codec checkpoints are encoded
// with. Deterministic encoding means a given checkpoint always signs to the
// same payload.
func NewCheckpointCodec() (dtcbor.CBORCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(), // unsigned int decodes to uint64
	)
	if err != nil {
		return dtcbor.CBORCodec{}, err
	}
	return codec, nil
}
