package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rahhal/booking-client/internal/models"
)

func testSnapshot() models.SeatStatus {
	return models.SeatStatus{
		1: models.SeatAvailable,
		2: models.SeatAvailable,
		3: models.SeatBooked,
		4: models.SeatAvailable,
	}
}

func TestSeatMapToggle(t *testing.T) {
	m := NewSeatMap(testSnapshot())

	assert.True(t, m.Toggle(1))
	assert.Equal(t, []int{1}, m.Selected())

	// Toggling twice is an involution: back to the prior selection.
	assert.True(t, m.Toggle(1))
	assert.Empty(t, m.Selected())

	assert.True(t, m.Toggle(2))
	assert.True(t, m.Toggle(4))
	assert.Equal(t, []int{2, 4}, m.Selected())
	assert.True(t, m.IsSelected(2))
	assert.False(t, m.IsSelected(1))
}

func TestSeatMapToggleRejectsUnselectable(t *testing.T) {
	m := NewSeatMap(testSnapshot())

	assert.False(t, m.Toggle(3), "booked seat")
	assert.False(t, m.Toggle(99), "seat absent from snapshot")
	assert.False(t, m.Toggle(0))
	assert.Empty(t, m.Selected())
}

func TestSeatMapProjections(t *testing.T) {
	m := NewSeatMap(testSnapshot())

	assert.Equal(t, []int{1, 2, 4}, m.Available())
	assert.Equal(t, []int{3}, m.Unavailable())
}

func TestSeatMapReplacePrunesSelection(t *testing.T) {
	m := NewSeatMap(testSnapshot())
	m.Toggle(1)
	m.Toggle(2)

	// Seat 2 gets taken remotely; a fresh snapshot replaces the old one
	// wholesale and the stale selection is pruned.
	dropped := m.Replace(models.SeatStatus{
		1: models.SeatAvailable,
		2: models.SeatBooked,
		3: models.SeatBooked,
		4: models.SeatAvailable,
	})

	assert.Equal(t, []int{2}, dropped)
	assert.Equal(t, []int{1}, m.Selected())
	assert.Equal(t, []int{2, 3}, m.Unavailable())
}

func TestSeatMapReplaceKeepsValidSelection(t *testing.T) {
	m := NewSeatMap(testSnapshot())
	m.Toggle(1)

	dropped := m.Replace(testSnapshot())

	assert.Empty(t, dropped)
	assert.Equal(t, []int{1}, m.Selected())
}
