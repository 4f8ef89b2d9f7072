package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapRange(t *testing.T) {
	assert.Equal(t, 255, MapRange(127, 0, 127, 0, 255))
	assert.Equal(t, 0, MapRange(0, 0, 127, 0, 255))
	assert.Equal(t, -1, MapRange(64, 0, 127, -4, 2))
	assert.Equal(t, 0, MapRange(64, 0, 127, -4, 4))
	assert.Equal(t, 129, MapRange(64, 0, 127, 1, 255))
}

func TestMapRangeTruncatesTowardZero(t *testing.T) {
	// (0-1)*49/126 truncates to 0, not -1.
	assert.Equal(t, 1, MapRange(0, 1, 127, 1, 50))
}

func TestClampAndIndex(t *testing.T) {
	assert.Equal(t, 255, Clamp(300, 0, 255))
	assert.Equal(t, 0.0, Clamp(-0.5, 0.0, 1.0))
	assert.Equal(t, 2, ClampIndex(9, 3))
	assert.Equal(t, 0, ClampIndex(-1, 3))
	assert.Equal(t, 0, ClampIndex(4, 0))
}
