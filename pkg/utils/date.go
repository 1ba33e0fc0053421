package utils

import (
	"time"
)

const DateTimeLayout = "2006-01-02 15:04:05"

// FromEpochMillis converts an epoch-milliseconds timestamp, dropping sub-second precision.
func FromEpochMillis(ms int64) time.Time {
	return time.Unix(ms/1000, 0)
}

// FormatLocal renders t in the local time zone as "YYYY-MM-DD HH:MM:SS".
func FormatLocal(t time.Time) string {
	return t.Local().Format(DateTimeLayout)
}
