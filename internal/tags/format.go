package tags

import "time"

// secondsThreshold separates second and millisecond epochs: anything below
// is read as seconds.
const secondsThreshold = 1e12

// TimestampToTime reads a timestap that may be in seconds or milliseconds.
func TimestampToTime(ts int64) time.Time {
	if ts < secondsThreshold {
		return time.Unix(ts, 0)
	}
	return time.UnixMilli(ts)
}

// FormatDate renders dd/mm/yyyy in loc.
func FormatDate(ts int64, loc *time.Location) string {
	return inLocation(TimestampToTime(ts), loc).Format("02/01/2006")
}

// FormatTime renders a 24h HH:MM:SS clock in loc.
func FormatTime(ts int64, loc *time.Location) string {
	return inLocation(TimestampToTime(ts), loc).Format("15:04:05")
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.Local()
	}
	return t.In(loc)
}
