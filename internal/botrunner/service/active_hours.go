package service

// IsWithinActiveHours reports whether hour (UTC, 0-23) falls inside the
// [start, end) window. A window with start > end wraps midnight. A missing
// bound means the bot is always active.
func IsWithinActiveHours(hour int, start, end *int) bool {
	if start == nil || end == nil {
		return true
	}
	if *start <= *end {
		return hour >= *start && hour < *end
	}
	return hour >= *start || hour < *end
}
