package orbit

import "time"

// JulianDate converts t to a Julian date, using the integer calendar
// algorithm of Fliegel and Van Flandern for the day number.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y, m, d := t.Year(), int(t.Month()), t.Day()

	mterm := (m - 14) / 12
	aterm := 1461 * (y + 4800 + mterm) / 4
	bterm := 367 * (m - 2 - 12*mterm) / 12
	cterm := 3 * ((y + 4900 + mterm) / 100) / 4

	jd := float64(aterm+bterm-cterm+d-32075) - 0.5

	seconds := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return jd + (float64(t.Hour())+(float64(t.Minute())+seconds/60)/60)/24
}

// J2000 is the Julian date of 2000-01-01 12:00 UTC.
const J2000 = 2451545.0

// SinceJ2000 returns the days elapsed since the J2000 epoch.
func SinceJ2000(t time.Time) float64 {
	return JulianDate(t) - J2000
}
