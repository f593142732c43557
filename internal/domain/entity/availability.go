package entity

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// AvailabilityEntry holds the bookable 12-hour slots of one calendar day
type AvailabilityEntry struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Availability is a doctor's published schedule, ordered as the doctor set it.
// A date appears at most once and its slots behave as a set.
type Availability []AvailabilityEntry

// Value implements driver.Valuer so the list is stored as a JSONB document
func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Availability) Scan(value interface{}) error {
	if value == nil {
		*a = Availability{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal availability value:", value))
	}

	result := Availability{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*a = result
	return nil
}

func (a Availability) indexOf(date string) int {
	for i := range a {
		if a[i].Date == date {
			return i
		}
	}
	return -1
}

// SlotsOn returns the free slots published for date, nil when the day is absent
func (a Availability) SlotsOn(date string) []string {
	if i := a.indexOf(date); i >= 0 {
		return a[i].Slots
	}
	return nil
}

// HasSlot reports whether slot is still free on date
func (a Availability) HasSlot(date, slot string) bool {
	for _, s := range a.SlotsOn(date) {
		if s == slot {
			return true
		}
	}
	return false
}

// RemoveSlot drops slot from date. It returns false when there was nothing to remove.
func (a Availability) RemoveSlot(date, slot string) bool {
	i := a.indexOf(date)
	if i < 0 {
		return false
	}
	slots := a[i].Slots
	for j, s := range slots {
		if s == slot {
			kept := make([]string, 0, len(slots)-1)
			kept = append(kept, slots[:j]...)
			kept = append(kept, slots[j+1:]...)
			a[i].Slots = kept
			return true
		}
	}
	return false
}

// RestoreSlot puts slot back on date. Days that are no longer published are
// left alone, and a slot already present is not duplicated.
func (a Availability) RestoreSlot(date, slot string) bool {
	i := a.indexOf(date)
	if i < 0 || a.HasSlot(date, slot) {
		return false
	}
	a[i].Slots = append(a[i].Slots, slot)
	return true
}

// NormalizeAvailability merges repeated dates in first-seen order and
// drops duplicate slots.
func NormalizeAvailability(entries []AvailabilityEntry) Availability {
	out := make(Availability, 0, len(entries))
	for _, e := range entries {
		i := out.indexOf(e.Date)
		if i < 0 {
			out = append(out, AvailabilityEntry{Date: e.Date, Slots: []string{}})
			i = len(out) - 1
		}
		for _, s := range e.Slots {
			if !out.HasSlot(e.Date, s) {
				out[i].Slots = append(out[i].Slots, s)
			}
		}
	}
	return out
}

// Clone returns a deep copy
func (a Availability) Clone() Availability {
	out := make(Availability, len(a))
	for i, e := range a {
		out[i] = AvailabilityEntry{Date: e.Date, Slots: append([]string{}, e.Slots...)}
	}
	return out
}
