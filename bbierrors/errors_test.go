package bbierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		k        Kind
		expected string
	}{
		{KindIO, "IoError"},
		{KindTruncated, "TruncatedData"},
		{KindBadMagic, "BadMagic"},
		{KindUnsupportedVersion, "UnsupportedVersion"},
		{KindIndexCorruption, "IndexCorruption"},
		{KindDecompress, "DecompressError"},
		{KindOutOfRange, "OutOfRange"},
		{KindUnknownChromosome, "UnknownChromosome"},
		{KindFraglenEstimation, "FraglenEstimationFailed"},
		{KindWriteFinalization, "WriteFinalizationError"},
		{Kind(999), "Unknown"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.k.String())
	}
}

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("disk gone")
	err := New(KindIO, "reading header", cause)

	assert.True(t, Is(err, KindIO))
	assert.False(t, Is(err, KindDecompress))
	assert.Contains(t, err.Error(), "IoError")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestIsIgnoresFlattenedMessage(t *testing.T) {
	inner := New(KindDecompress, "inflating block", nil)
	outer := errors.New("wrapped: " + inner.Error())

	assert.False(t, Is(outer, KindDecompress)) // plain errors.New does not unwrap to *Error
	assert.True(t, Is(inner, KindDecompress))
}

func TestNewWithoutCause(t *testing.T) {
	err := New(KindOutOfRange, "bad coordinate", nil)
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "OutOfRange: bad coordinate", err.Error())
}
