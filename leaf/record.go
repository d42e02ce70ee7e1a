package leaf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// lenPrefixBytes is the width of each length prefix.
	lenPrefixBytes = 8
)

var (
	ErrEncoding = errors.New("record can not be canonically encoded")
)

// Record is a single key/value pair owned by the data owner.
type Record struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Encode returns the canonical leaf bytes for the record.
func (r Record) Encode() ([]byte, error) {
	return Encode(r.Key, r.Value)
}

// Encode returns the canonical leaf bytes for (key, value).
//
// Keys must be non empty. Both key and value must be valid utf-8, values are
// otherwise unconstrained and may be empty.
func Encode(key, value string) ([]byte, error) {
	if err := Validate(key, value); err != nil {
		return nil, err
	}
	b := make([]byte, 0, EncodedLen(key, value))
	b = appendField(b, key)
	b = appendField(b, value)
	return b, nil
}

// MustEncode is Encode for literals known to be valid. It panics on error.
func MustEncode(key, value string) []byte {
	b, err := Encode(key, value)
	if err != nil {
		panic(err)
	}
	return b
}

// Validate reports whether (key, value) is representable.
func Validate(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrEncoding)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key %q is not valid utf-8", ErrEncoding, key)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: value for key %q is not valid utf-8", ErrEncoding, key)
	}
	return nil
}

// EncodedLen returns the number of bytes Encode produces for (key, value)
func EncodedLen(key, value string) int {
	return 2*lenPrefixBytes + len(key) + len(value)
}

// Decode reverses Encode. It is used by tooling that audits stored leaf
// bytes, verification never needs it.
func Decode(b []byte) (Record, error) {
	key, rest, err := readField(b)
	if err != nil {
		return Record{}, err
	}
	value, rest, err := readField(rest)
	if err != nil {
		return Record{}, err
	}
	if len(rest) != 0 {
		return Record{}, fmt.Errorf("%w: %d trailing bytes", ErrEncoding, len(rest))
	}
	if err := Validate(key, value); err != nil {
		return Record{}, err
	}
	return Record{Key: key, Value: value}, nil
}

func appendField(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint64(b, uint64(len(s)))
	return append(b, s...)
}

func readField(b []byte) (string, []byte, error) {
	if len(b) < lenPrefixBytes {
		return "", nil, fmt.Errorf("%w: truncated length prefix", ErrEncoding)
	}
	n := binary.BigEndian.Uint64(b[:lenPrefixBytes])
	b = b[lenPrefixBytes:]
	if n > uint64(len(b)) {
		return "", nil, fmt.Errorf("%w: field length %d exceeds remaining %d bytes", ErrEncoding, n, len(b))
	}
	return string(b[:n]), b[n:], nil
}
