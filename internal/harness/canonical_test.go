package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := marshalCanonical(map[string]any{
		"zeta":  int64(1),
		"alpha": int64(2),
		"mid":   "x",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":"x","zeta":1}`, string(out))
}

func TestMarshalCanonical_NestedAndArrays(t *testing.T) {
	out, err := marshalCanonical(map[string]any{
		"b": []any{int64(1), map[string]any{"y": true, "x": false}},
		"a": map[string]any{"n": uint64(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"n":7},"b":[1,{"x":false,"y":true}]}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := marshalCanonical("a<b&c>d")
	require.NoError(t, err)
	assert.Equal(t, `"a<b&c>d"`, string(out))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as e + combining acute must normalize to the composed form.
	decomposed := "é"
	composed := "é"

	a, err := marshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := marshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_Rejections(t *testing.T) {
	_, err := marshalCanonical(nil)
	assert.Error(t, err, "null is forbidden")

	_, err = marshalCanonical(3.14)
	assert.Error(t, err, "floats are forbidden")

	_, err = marshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err, "nested null is forbidden")
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	in := map[string]any{
		"trace": []any{
			map[string]any{"seq": 1, "accepted": true},
			map[string]any{"seq": 2, "accepted": false},
		},
		"node_id": testNodeID,
	}

	first, err := marshalCanonical(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := marshalCanonical(in)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
