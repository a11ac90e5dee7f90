package rpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringParamCoercion(t *testing.T) {
	params := map[string]any{"s": "text", "n": 42, "nil": nil}
	assert.Equal(t, "text", stringParam(params, "s", "d"))
	assert.Equal(t, "42", stringParam(params, "n", "d"))
	assert.Equal(t, "d", stringParam(params, "nil", "d"))
	assert.Equal(t, "d", stringParam(params, "absent", "d"))
}

func TestRequiredStringParam(t *testing.T) {
	got, err := requiredStringParam(map[string]any{"path": "/tmp/x"}, "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", got)

	_, err = requiredStringParam(map[string]any{}, "path")
	require.EqualError(t, err, `missing required parameter "path"`)

	_, err = requiredStringParam(map[string]any{"path": ""}, "path")
	require.Error(t, err)
}

func TestBoolParamCoercion(t *testing.T) {
	params := map[string]any{"b": true, "s": "true", "bad": "maybe", "n": 1}
	assert.True(t, boolParam(params, "b", false))
	assert.True(t, boolParam(params, "s", false))
	assert.False(t, boolParam(params, "bad", false))
	assert.False(t, boolParam(params, "n", false), "numbers are not booleans")
	assert.True(t, boolParam(params, "absent", true))
}

func TestIntParamCoercion(t *testing.T) {
	// JSON decoding yields float64 for every number.
	params := map[string]any{"f": float64(7), "i": 3, "s": "12", "bad": "x"}
	assert.Equal(t, 7, intParam(params, "f", 0))
	assert.Equal(t, 3, intParam(params, "i", 0))
	assert.Equal(t, 12, intParam(params, "s", 0))
	assert.Equal(t, 99, intParam(params, "bad", 99))
	assert.Equal(t, 99, intParam(params, "absent", 99))
}

func TestFloatParamCoercion(t *testing.T) {
	params := map[string]any{"f": 1.5, "i": 2, "s": "0.25"}
	assert.Equal(t, 1.5, floatParam(params, "f", 0))
	assert.Equal(t, 2.0, floatParam(params, "i", 0))
	assert.Equal(t, 0.25, floatParam(params, "s", 0))
	assert.Equal(t, 9.0, floatParam(params, "absent", 9.0))
}
