// Package kvtesting holds helpers shared by the package tests.
package kvtesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log logger.Logger
	T   *testing.T
	Cfg TestConfig
	rng *mathrand.Rand
}

type TestConfig struct {
	// We seed the RNG from StartTimeMS. It is normal to force it to some
	// fixed value so that the generated records are the same from run to run.
	StartTimeMS     int64
	TestLabelPrefix string
	// LogLevel defaults to NOOP
	LogLevel string
}

func NewTestContext(t *testing.T, cfg TestConfig) *TestContext {
	level := cfg.LogLevel
	if level == "" {
		level = "NOOP"
	}
	logger.New(level)
	return &TestContext{
		Log: logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		T:   t,
		Cfg: cfg,
		rng: mathrand.New(mathrand.NewSource(cfg.StartTimeMS)),
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// GenerateRecords returns n records with distinct keys. Values are random but
// reproducible for a given StartTimeMS.
func (c *TestContext) GenerateRecords(n int) []leaf.Record {
	records := make([]leaf.Record, n)
	for i := range records {
		records[i] = leaf.Record{
			Key:   fmt.Sprintf("%s-key-%06d", c.Cfg.TestLabelPrefix, i),
			Value: fmt.Sprintf("value-%x", c.rng.Uint64()),
		}
	}
	return records
}

// GenerateECKey returns a fresh key on curve.
func GenerateECKey(t *testing.T, curve elliptic.Curve) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return key
}

// Records builds records from alternating key, value arguments.
func Records(kv ...string) []leaf.Record {
	if len(kv)%2 != 0 {
		panic("kvtesting.Records needs key, value pairs")
	}
	records := make([]leaf.Record, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		records = append(records, leaf.Record{Key: kv[i], Value: kv[i+1]})
	}
	return records
}
