package coverage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/track"
)

func TestRPGCScale(t *testing.T) {
	scale := RPGCScale(1000, 200, 2000000)
	assert.InDelta(t, 2000000.0/(1000*200), scale, 1e-9)
}

func TestRPGCScaleDegenerateInputsNoOp(t *testing.T) {
	assert.Equal(t, 1.0, RPGCScale(0, 200, 2000000))
	assert.Equal(t, 1.0, RPGCScale(1000, 0, 2000000))
	assert.Equal(t, 1.0, RPGCScale(1000, 200, 0))
}

func TestScaleTrackPreservesNaN(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	tr := track.New("t", g, 100)
	require.NoError(t, tr.Set(0, 0, 4))
	ScaleTrack(tr, 2)
	v0, _ := tr.At(0, 0)
	v1, _ := tr.At(0, 100)
	assert.Equal(t, float32(8), v0)
	assert.True(t, math.IsNaN(float64(v1)))
}

func TestCombineLog2Ratio(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	treatment := track.New("treatment", g, 100)
	control := track.New("control", g, 100)
	require.NoError(t, treatment.Set(0, 0, 3))
	require.NoError(t, control.Set(0, 0, 1))

	out, err := Combine("signal", treatment, control, NormalizeOptions{Pseudocount: 1, Combine: CombineLog2Ratio})
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.InDelta(t, math.Log2((3.0+1)/(1.0+1)), float64(v), 1e-6)
}

func TestCombineDifference(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	treatment := track.New("treatment", g, 100)
	control := track.New("control", g, 100)
	require.NoError(t, treatment.Set(0, 0, 5))
	require.NoError(t, control.Set(0, 0, 2))

	out, err := Combine("signal", treatment, control, NormalizeOptions{Combine: CombineDifference})
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.Equal(t, float32(3), v)
}

func TestCombineRatio(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	treatment := track.New("treatment", g, 100)
	control := track.New("control", g, 100)
	require.NoError(t, treatment.Set(0, 0, 6))
	require.NoError(t, control.Set(0, 0, 3))

	out, err := Combine("signal", treatment, control, NormalizeOptions{Combine: CombineRatio})
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.Equal(t, float32(2), v)
}

func TestCombineRawIgnoresControl(t *testing.T) {
	g, err := genome.New([]string{"chr1"}, []uint32{1000})
	require.NoError(t, err)
	treatment := track.New("treatment", g, 100)
	require.NoError(t, treatment.Set(0, 0, 9))
	control := track.New("control", g, 100)
	require.NoError(t, control.Set(0, 0, 100))

	out, err := Combine("signal", treatment, control, NormalizeOptions{Combine: CombineRaw})
	require.NoError(t, err)
	v, _ := out.At(0, 0)
	assert.Equal(t, float32(9), v)
}
