package appointment

// HasOverlap reports whether [start, end) intersects any of the existing
// windows. The caller passes the slots of one doctor on one date. A stored
// window that no longer parses counts as overlapping so nothing gets
// registered on top of it.
func HasOverlap(existing []Slot, start, end string) (bool, error) {
	newStart, err := ParseClock(start)
	if err != nil {
		return false, ErrInvalidTimeFormat
	}
	newEnd, err := ParseClock(end)
	if err != nil {
		return false, ErrInvalidTimeFormat
	}

	for _, s := range existing {
		existingStart, err := ParseClock(s.StartTime)
		if err != nil {
			return true, nil
		}
		existingEnd, err := ParseClock(s.EndTime)
		if err != nil {
			return true, nil
		}
		if newStart < existingEnd && newEnd > existingStart {
			return true, nil
		}
	}
	return false, nil
}
