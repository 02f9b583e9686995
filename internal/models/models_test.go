package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseBooking_HasCoach(t *testing.T) {
	assert.True(t, (&CourseBooking{CoachName: "Li"}).HasCoach())
	assert.False(t, (&CourseBooking{}).HasCoach())
}

func TestCoachBooking_HasPrice(t *testing.T) {
	assert.True(t, (&CoachBooking{Price: PriceOf(0)}).HasPrice())
	assert.False(t, (&CoachBooking{}).HasPrice())
}

func TestCoachBooking_JSONOmitsMissingPrice(t *testing.T) {
	data, err := json.Marshal(CoachBooking{Account: "m1", CoachName: "Wang", SlotTime: "2024-05-01 08:00:00"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "price")

	data, err = json.Marshal(CoachBooking{Price: PriceOf(199.5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":199.5`)
}
