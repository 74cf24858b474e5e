package ratesync

import (
	"testing"
	"time"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		age  time.Duration
		want string
	}{
		{0, "just now"},
		{4 * time.Second, "just now"},
		{5 * time.Second, "5s ago"},
		{59 * time.Second, "59s ago"},
		{time.Minute, "1m ago"},
		{90 * time.Second, "1m ago"},
		{45 * time.Minute, "45m ago"},
		{2 * time.Hour, "120m ago"},
	}
	for _, tc := range cases {
		if got := FormatAge(now, now.Add(-tc.age)); got != tc.want {
			t.Errorf("FormatAge(age=%s) = %q, want %q", tc.age, got, tc.want)
		}
	}
}

func TestFormatAgeNeverSucceeded(t *testing.T) {
	if got := FormatAge(time.Now(), time.Time{}); got != "never" {
		t.Fatalf("zero last-success should read %q, got %q", "never", got)
	}
}

func TestFormatAgeClockSkew(t *testing.T) {
	now := time.Now()
	if got := FormatAge(now, now.Add(time.Minute)); got != "just now" {
		t.Fatalf("a future timestamp should clamp to %q, got %q", "just now", got)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{State{}, "loading"},
		{State{HadError: true}, "rate unavailable"},
		{State{IsLive: true}, "live"},
		{State{IsLive: true, HadError: true}, "delayed"},
	}
	for _, tc := range cases {
		if got := StatusLabel(tc.state); got != tc.want {
			t.Errorf("StatusLabel(%+v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}
