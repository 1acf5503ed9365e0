package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVehicle_DisplayName(t *testing.T) {
	v := &Vehicle{FIN: "WDD111", LicensePlate: "M-XX 1"}
	assert.Equal(t, "M-XX 1", v.DisplayName())

	v = &Vehicle{FIN: "WDD111"}
	assert.Equal(t, "WDD111", v.DisplayName(), "falls back to the FIN without a plate")
}

func TestFeatureSet_UnknownDefaultsToDisabled(t *testing.T) {
	var f FeatureSet
	assert.False(t, f.Enabled("aux_heat"))

	f = FeatureSet{"aux_heat": true}
	assert.True(t, f.Enabled("aux_heat"))
	assert.False(t, f.Enabled("remote_door_lock"))
}
