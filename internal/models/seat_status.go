package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// SeatState represents the remote status of a single seat
type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatBooked    SeatState = "booked"
)

// SeatStatus maps seat numbers to their remote state. It is a read-only
// snapshot of server state; a refresh always replaces the whole map.
type SeatStatus map[int]SeatState

// SeatStatusResponse is the wire shape of GET /trips/{id}/seats.
// The server keys the map with numeric strings, so parsing goes through
// UnmarshalJSON rather than a plain map decode.
type SeatStatusResponse struct {
	SeatStatus SeatStatus `json:"seat_status"`
}

// UnmarshalJSON parses the server's string-keyed seat map into integer seat
// numbers, rejecting anything that is not a positive seat number with a
// known state.
func (s *SeatStatus) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse seat status map: %w", err)
	}

	parsed := make(SeatStatus, len(raw))
	for key, value := range raw {
		seatNumber, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid seat number %q: %w", key, err)
		}
		if seatNumber <= 0 {
			return fmt.Errorf("invalid seat number %d: must be positive", seatNumber)
		}

		state := SeatState(value)
		if state != SeatAvailable && state != SeatBooked {
			return fmt.Errorf("unknown seat state %q for seat %d", value, seatNumber)
		}
		parsed[seatNumber] = state
	}

	*s = parsed
	return nil
}

// MarshalJSON writes the map back in the server's string-keyed form.
func (s SeatStatus) MarshalJSON() ([]byte, error) {
	raw := make(map[string]string, len(s))
	for seatNumber, state := range s {
		raw[strconv.Itoa(seatNumber)] = string(state)
	}
	return json.Marshal(raw)
}

// SeatNumbers returns all seat numbers in the snapshot, ascending.
func (s SeatStatus) SeatNumbers() []int {
	numbers := make([]int, 0, len(s))
	for seatNumber := range s {
		numbers = append(numbers, seatNumber)
	}
	sort.Ints(numbers)
	return numbers
}

// IsAvailable reports whether the seat exists in the snapshot and is free.
func (s SeatStatus) IsAvailable(seatNumber int) bool {
	return s[seatNumber] == SeatAvailable
}
