package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	table := Default()
	require.NoError(t, table.Validate())
	assert.Equal(t, 513, table.FrameLength)
	assert.Len(t, table.Panels, 8)
}

func TestValidateRejectsOutOfFrameAddresses(t *testing.T) {
	table := Default()
	table.Fog = 513
	assert.Error(t, table.Validate())

	table = Default()
	table.Panels = append(table.Panels, 512)
	assert.Error(t, table.Validate())

	table = Default()
	table.Washes = append(table.Washes, Wash{Name: "rear", Start: 510, Layout: LayoutScaledRGB})
	assert.Error(t, table.Validate())
}

func TestValidateBoundsFrameLength(t *testing.T) {
	table := Default()
	table.FrameLength = 600
	err := table.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "exceeds one universe")

	table.FrameLength = 1
	assert.Error(t, table.Validate())

	table = Default()
	table.FrameLength = 300
	assert.NoError(t, table.Validate())
}

func TestValidateRejectsUnknownLayout(t *testing.T) {
	table := Default()
	table.Washes[0].Layout = "cmy"
	assert.Error(t, table.Validate())
}

func TestWashWidth(t *testing.T) {
	assert.Equal(t, 4, Wash{Layout: LayoutRGBDimmer}.Width())
	assert.Equal(t, 5, Wash{Layout: LayoutScaledRGB}.Width())
}
