package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotEntry struct {
	Date  string   `json:"date" validate:"required,isodate"`
	Slots []string `json:"slots" validate:"dive,clock12"`
}

type verifyRequest struct {
	Action string `validate:"required,oneof=approve reject"`
}

func TestValidate_CustomTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&slotEntry{Date: "2030-01-15", Slots: []string{"10:00 AM", "01:30 PM"}}))

	err := v.Validate(&slotEntry{Date: "15-01-2030", Slots: []string{"10:00"}})
	require.Error(t, err)

	msgs := v.FormatValidationErrors(err)
	assert.Equal(t, "Date must be a date in YYYY-MM-DD format", msgs["Date"])
	assert.Equal(t, "Slots[0] must be a time in hh:MM AM/PM format", msgs["Slots[0]"])
}

func TestValidate_OneOf(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&verifyRequest{Action: "approve"}))

	err := v.Validate(&verifyRequest{Action: "maybe"})
	require.Error(t, err)
	assert.Equal(t, "Action must be one of: approve reject", v.FormatValidationErrors(err)["Action"])
}
