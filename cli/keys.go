package cli

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

const pemTypeECPrivateKey = "EC PRIVATE KEY"

// GenerateSigningKey writes a new P-256 key to file in PEM form. An existing
// file is never overwritten.
func GenerateSigningKey(file string) (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: pemTypeECPrivateKey, Bytes: der}); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadSigningKey reads a key written by GenerateSigningKey.
func LoadSigningKey(file string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read signing key: %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeECPrivateKey {
		return nil, errors.New("signing key: no EC PRIVATE KEY block")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signing key: %v", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, errors.New("signing key: ES256 needs a P-256 key")
	}
	return key, nil
}
