package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		t       Thresholds
		wantErr bool
	}{
		{"defaults are valid", DefaultThresholds, false},
		{"tight bands", Thresholds{LowMax: 0, MediumMax: 99}, false},
		{"low above medium", Thresholds{LowMax: 70, MediumMax: 40}, true},
		{"low equals medium", Thresholds{LowMax: 50, MediumMax: 50}, true},
		{"medium leaves no high band", Thresholds{LowMax: 40, MediumMax: 100}, true},
		{"negative low", Thresholds{LowMax: -1, MediumMax: 70}, true},
		{"low above range", Thresholds{LowMax: 101, MediumMax: 70}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestThresholdsBand(t *testing.T) {
	th := Thresholds{LowMax: 40, MediumMax: 70}

	assert.Equal(t, "low", th.Band(0))
	assert.Equal(t, "low", th.Band(40))
	assert.Equal(t, "medium", th.Band(41))
	assert.Equal(t, "medium", th.Band(70))
	assert.Equal(t, "high", th.Band(71))
	assert.Equal(t, "high", th.Band(100))
}
