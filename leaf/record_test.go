package leaf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "simple",
			key:   "k1",
			value: "a",
			want: []byte{
				0, 0, 0, 0, 0, 0, 0, 2, 'k', '1',
				0, 0, 0, 0, 0, 0, 0, 1, 'a',
			},
		},
		{
			name:  "empty value is allowed",
			key:   "k",
			value: "",
			want: []byte{
				0, 0, 0, 0, 0, 0, 0, 1, 'k',
				0, 0, 0, 0, 0, 0, 0, 0,
			},
		},
		{
			name:    "empty key",
			key:     "",
			value:   "v",
			wantErr: true,
		},
		{
			name:    "invalid utf-8 key",
			key:     "\xff\xfe",
			value:   "v",
			wantErr: true,
		},
		{
			name:    "invalid utf-8 value",
			key:     "k",
			value:   "\xc3\x28",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.key, tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEncoding)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, EncodedLen(tt.key, tt.value))
		})
	}
}

// TestEncodeSeparatorAmbiguity checks the pairs a "key:value" join would
// confuse encode differently.
func TestEncodeSeparatorAmbiguity(t *testing.T) {
	pairs := [][2]Record{
		{{Key: "a", Value: "b:c"}, {Key: "a:b", Value: "c"}},
		{{Key: "ab", Value: "c"}, {Key: "a", Value: "bc"}},
		{{Key: "k", Value: ""}, {Key: "k\x00", Value: ""}},
	}
	for _, p := range pairs {
		a, err := p[0].Encode()
		require.NoError(t, err)
		b, err := p[1].Encode()
		require.NoError(t, err)
		assert.False(t, bytes.Equal(a, b), "%v and %v collide", p[0], p[1])
	}
}

func TestDecode(t *testing.T) {
	r := Record{Key: "user:42", Value: "{\"name\":\"zoë\"}"}
	b, err := r.Encode()
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = Decode(b[:len(b)-1])
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = Decode(append(b, 0))
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = Decode([]byte{0, 0, 1})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestMustEncodePanics(t *testing.T) {
	assert.Panics(t, func() { MustEncode("", "v") })
	assert.NotPanics(t, func() { MustEncode("k", "v") })
}
