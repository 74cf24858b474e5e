package ratesync

import (
	"fmt"
	"time"
)

// FormatAge renders the time since the last successful fetch as a short
// human-readable label. It is a pure function of the two instants, so callers
// can re-derive it on their own cadence (once a second in the UI) without
// touching the synchronizer.
func FormatAge(now, lastSuccess time.Time) string {
	if lastSuccess.IsZero() {
		return "never"
	}

	age := now.Sub(lastSuccess)
	if age < 0 {
		age = 0
	}

	switch {
	case age < 5*time.Second:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	default:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
}

// StatusLabel maps sync state onto the short status shown next to a rate.
// A transient error after a successful fetch keeps the last good value
// visible; "rate unavailable" appears only when nothing has ever succeeded.
func StatusLabel(state State) string {
	switch {
	case !state.IsLive && state.HadError:
		return "rate unavailable"
	case !state.IsLive:
		return "loading"
	case state.HadError:
		return "delayed"
	default:
		return "live"
	}
}
