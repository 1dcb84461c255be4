package utils

import "time"

//StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ToMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func FromMillis(millis int64) time.Time {
	return time.Unix(0, millis*int64(time.Millisecond)).UTC()
}
