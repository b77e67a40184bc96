package services

import (
	"sort"

	"github.com/rahhal/booking-client/internal/models"
)

// SeatMap derives available/unavailable/selected seat sets from a seat
// status snapshot. The layout (standard bus vs mini bus) is a rendering
// concern; selection semantics are identical for both.
//
// A SeatMap is not safe for concurrent use on its own; the owning session
// serializes access.
type SeatMap struct {
	status   models.SeatStatus
	selected map[int]bool
}

// NewSeatMap creates a seat map over a freshly loaded snapshot with an
// empty selection.
func NewSeatMap(status models.SeatStatus) *SeatMap {
	return &SeatMap{
		status:   status,
		selected: make(map[int]bool),
	}
}

// Toggle flips the selection of a seat. Seats absent from the snapshot or
// not available cannot be selected; toggling them is a no-op and returns
// false.
func (m *SeatMap) Toggle(seatNumber int) bool {
	if !m.status.IsAvailable(seatNumber) {
		return false
	}
	if m.selected[seatNumber] {
		delete(m.selected, seatNumber)
	} else {
		m.selected[seatNumber] = true
	}
	return true
}

// Replace swaps in a new snapshot wholesale and prunes any selected seat
// that is no longer available. Returns the pruned seat numbers, ascending.
func (m *SeatMap) Replace(status models.SeatStatus) []int {
	m.status = status

	var dropped []int
	for seatNumber := range m.selected {
		if !status.IsAvailable(seatNumber) {
			dropped = append(dropped, seatNumber)
			delete(m.selected, seatNumber)
		}
	}
	sort.Ints(dropped)
	return dropped
}

// Selected returns the chosen seat numbers, ascending.
func (m *SeatMap) Selected() []int {
	return sortedKeys(m.selected)
}

// SelectedCount returns the size of the current selection.
func (m *SeatMap) SelectedCount() int {
	return len(m.selected)
}

// IsSelected reports whether a seat is part of the current selection.
func (m *SeatMap) IsSelected(seatNumber int) bool {
	return m.selected[seatNumber]
}

// Available returns the seats open for selection, ascending.
func (m *SeatMap) Available() []int {
	var seats []int
	for seatNumber, state := range m.status {
		if state == models.SeatAvailable {
			seats = append(seats, seatNumber)
		}
	}
	sort.Ints(seats)
	return seats
}

// Unavailable returns the seats that cannot be selected, ascending.
func (m *SeatMap) Unavailable() []int {
	var seats []int
	for seatNumber, state := range m.status {
		if state != models.SeatAvailable {
			seats = append(seats, seatNumber)
		}
	}
	sort.Ints(seats)
	return seats
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}
