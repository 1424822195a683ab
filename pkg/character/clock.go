package character

import "math"

// Clock is the in-game calendar position. Day starts at 1; hour and
// minute roll over the usual way.
type Clock struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Advance moves the clock forward by the given number of minutes.
// Negative advancement is ignored; the validator rejects it before the
// pipeline runs, this guard just keeps the type safe on its own.
func (cl *Clock) Advance(minutes int) {
	if minutes <= 0 {
		return
	}
	total := cl.Minute + minutes
	cl.Minute = total % 60
	hours := cl.Hour + total/60
	cl.Hour = hours % 24
	cl.Day += hours / 24
	if cl.Day < 1 {
		cl.Day = 1
	}
}

// TotalMinutes returns the clock position as minutes since day 1, 00:00.
// Useful for ordering assertions in tests.
func (cl Clock) TotalMinutes() int {
	return (cl.Day-1)*24*60 + cl.Hour*60 + cl.Minute
}

// Round1 rounds to one decimal place. Needs accrue in fractional steps
// and are stored at this precision so repeated small advances stay stable.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
