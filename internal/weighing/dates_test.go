package weighing

import (
	"testing"
	"time"
)

func TestParseStamp(t *testing.T) {
	got, err := ParseStamp("20250310083000")
	if err != nil {
		t.Fatalf("ParseStamp: %v", err)
	}
	want := time.Date(2025, 3, 10, 8, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseStamp = %v, want %v", got, want)
	}

	for _, bad := range []string{"2025-03-10", "20250310", "notadate", "20251345990000"} {
		if _, err := ParseStamp(bad); err == nil {
			t.Errorf("ParseStamp(%q) succeeded, want error", bad)
		}
	}
}

func TestStampDefaults(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 42, 7, 0, time.Local)

	if got := StartOfDay(now); got != time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local) {
		t.Errorf("StartOfDay = %v", got)
	}
	if got := StartOfMonth(now); got != time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local) {
		t.Errorf("StartOfMonth = %v", got)
	}
	if got := FormatStamp(now); got != "20250310154207" {
		t.Errorf("FormatStamp = %q", got)
	}
}
