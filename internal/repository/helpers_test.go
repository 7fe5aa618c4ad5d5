package repository

import "time"

func sqlmockTime() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
