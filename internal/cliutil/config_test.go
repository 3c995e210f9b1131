package cliutil

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestSetDefaultsMatchSpec(t *testing.T) {
	v := newViper()
	assert.Equal(t, 2.8e-6, v.GetFloat64(KeySpuriousInsRate))
	assert.Equal(t, 5.1e-6, v.GetFloat64(KeySpuriousDelRate))
	assert.Equal(t, 64, v.GetInt(KeyIndelWindow))
	assert.Equal(t, 1000, v.GetInt(KeyMaxIndelLen))
	assert.Equal(t, 200, v.GetInt(KeyMaxDepth))
}

func TestRealignParamsFromDefaults(t *testing.T) {
	v := newViper()
	params, err := RealignParams(v)
	require.NoError(t, err)
	assert.Less(t, params.ProbGapX, 0.0)
	assert.Less(t, params.ProbGapY, 0.0)
}

func TestRealignParamsRejectsOutOfRangeRate(t *testing.T) {
	v := newViper()
	v.Set(KeySpuriousInsRate, 1.5)
	_, err := RealignParams(v)
	assert.Error(t, err)
}

func TestSampleEngineOptionsRejectsOversizedIndelWindow(t *testing.T) {
	v := newViper()
	v.Set(KeyIndelWindow, 128)
	_, err := SampleEngineOptions(v)
	assert.Error(t, err)
}

func TestSampleEngineOptionsFromDefaults(t *testing.T) {
	v := newViper()
	opts, err := SampleEngineOptions(v)
	require.NoError(t, err)
	assert.Equal(t, 200, opts.MaxDepth)
	assert.Equal(t, 64, opts.Window)
}
