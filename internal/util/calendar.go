package util

import "time"

// Session names for the three XAU/USD trading windows. Gold trades nearly
// around the clock, so classification is by dominant regional session rather
// than exchange hours.
const (
	SessionAsia   = "Asia"
	SessionEurope = "Europe"
	SessionUS     = "US"
)

// SessionAt returns the trading session that dominates at time t.
// Boundaries (UTC): Asia 23:00-07:00, Europe 07:00-13:00, US 13:00-23:00.
func SessionAt(t time.Time) string {
	h := t.UTC().Hour()
	switch {
	case h >= 23 || h < 7:
		return SessionAsia
	case h < 13:
		return SessionEurope
	default:
		return SessionUS
	}
}

// SessionDate returns the YYYY-MM-DD date key a session context is recorded
// under. The Asia session spans midnight UTC and is keyed to the day it
// closes on, so its 23:00 opening hour rolls forward to the next date.
func SessionDate(t time.Time) string {
	u := t.UTC()
	if u.Hour() >= 23 {
		u = u.Add(24 * time.Hour)
	}
	return u.Format("2006-01-02")
}
