package models

import "time"

// Interval is a half-open wall-clock range [Start, End). Touching
// endpoints do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// slotDef anchors a named class period on the campus bell schedule.
type slotDef struct {
	name        string
	startHour   int
	startMinute int
	endHour     int
	endMinute   int
}

// The fixed period enumeration used by the slot-equality ledgers
// (reservations, usage records). Order matters: it is the order shown
// to clients on invalid-slot responses.
var slotTable = []slotDef{
	{name: "1-2", startHour: 8, startMinute: 0, endHour: 9, endMinute: 40},
	{name: "3-4", startHour: 10, startMinute: 0, endHour: 11, endMinute: 40},
	{name: "5-6", startHour: 14, startMinute: 0, endHour: 15, endMinute: 40},
	{name: "7-8", startHour: 16, startMinute: 0, endHour: 17, endMinute: 40},
	{name: "9-10", startHour: 19, startMinute: 0, endHour: 20, endMinute: 40},
}

// ValidTimeSlots returns the ordered named-slot vocabulary.
func ValidTimeSlots() []string {
	names := make([]string, 0, len(slotTable))
	for _, def := range slotTable {
		names = append(names, def.name)
	}
	return names
}

// IsValidSlot reports whether the named slot belongs to the enumeration.
func IsValidSlot(slot string) bool {
	for _, def := range slotTable {
		if def.name == slot {
			return true
		}
	}
	return false
}

// SlotInterval anchors a named slot's canonical interval on a calendar
// day. It is the bridge between the named-slot ledgers and the
// interval ledgers: cross-representation comparison always happens at
// the Interval level.
func SlotInterval(slot string, date time.Time) (Interval, bool) {
	for _, def := range slotTable {
		if def.name != slot {
			continue
		}
		year, month, day := date.Date()
		loc := date.Location()
		return Interval{
			Start: time.Date(year, month, day, def.startHour, def.startMinute, 0, 0, loc),
			End:   time.Date(year, month, day, def.endHour, def.endMinute, 0, 0, loc),
		}, true
	}
	return Interval{}, false
}
