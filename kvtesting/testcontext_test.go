package kvtesting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRecordsReproducible(t *testing.T) {
	cfg := TestConfig{StartTimeMS: 1698342521000, TestLabelPrefix: "gen"}
	a := NewTestContext(t, cfg).GenerateRecords(10)
	b := NewTestContext(t, cfg).GenerateRecords(10)
	assert.Equal(t, a, b)

	keys := map[string]bool{}
	for _, r := range a {
		keys[r.Key] = true
	}
	assert.Len(t, keys, 10)
}

func TestRecords(t *testing.T) {
	r := Records("k1", "a", "k2", "b")
	assert.Len(t, r, 2)
	assert.Equal(t, "k2", r[1].Key)
	assert.Panics(t, func() { Records("odd") })
}

func TestCallCounter(t *testing.T) {
	var c TestCallCounter
	assert.Equal(t, 0, c.MethodCallCount("Put"))
	c.IncMethodCall("Put")
	assert.Equal(t, 2, c.IncMethodCall("Put"))
	c.Reset()
	assert.Equal(t, 0, c.MethodCallCount("Put"))
}
