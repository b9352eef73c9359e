// Package astro computes solar event times using the NOAA sunrise equation
// and memoizes results per location and calendar day.
package astro

import (
	"math"
	"time"
)

// sunAngle is the solar elevation at sunrise/sunset, accounting for
// atmospheric refraction and the apparent radius of the solar disc.
const sunAngle = -0.833

// Times contains the raw solar event instants for one location and day.
// A zero instant means the event does not occur on that day (polar day or
// polar night).
type Times struct {
	Sunrise time.Time
	Sunset  time.Time
}

// HasBoth reports whether both events occur on the day.
func (t Times) HasBoth() bool {
	return !t.Sunrise.IsZero() && !t.Sunset.IsZero()
}

// Calculator computes solar event times for a coordinate on the calendar
// day of date, expressed in date's timezone.
type Calculator interface {
	SunTimes(date time.Time, lat, lon float64) Times
}

// NOAACalculator implements Calculator with the NOAA sunrise equation.
// Accuracy is within a couple of minutes, which is plenty for switching
// day/night modes.
type NOAACalculator struct{}

// SunTimes returns the sunrise and sunset instants for the calendar day of date.
func (NOAACalculator) SunTimes(date time.Time, lat, lon float64) Times {
	// Julian day - add 0.5 because the NOAA sunrise equation expects JD at noon, not midnight
	jd := toJulianDay(date) + 0.5

	var times Times
	if t, ok := sunTime(jd, lat, lon, date, sunAngle, true); ok {
		times.Sunrise = t
	}
	if t, ok := sunTime(jd, lat, lon, date, sunAngle, false); ok {
		times.Sunset = t
	}
	return times
}

// toJulianDay converts a date to Julian day number
func toJulianDay(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
}

// sunTime calculates the sunrise or sunset time. The second return value is
// false when the sun never crosses the horizon angle on that day, i.e. the
// event does not exist.
func sunTime(jd, lat, lon float64, date time.Time, angle float64, rising bool) (time.Time, bool) {
	// Approximate solar noon
	n := jd - 2451545.0 + 0.0008
	jStar := n - lon/360.0

	// Solar mean anomaly
	m := math.Mod(357.5291+0.98560028*jStar, 360.0)
	mRad := m * math.Pi / 180.0

	// Equation of center
	c := 1.9148*math.Sin(mRad) + 0.02*math.Sin(2*mRad) + 0.0003*math.Sin(3*mRad)

	// Ecliptic longitude
	lambda := math.Mod(m+c+180+102.9372, 360.0)
	lambdaRad := lambda * math.Pi / 180.0

	// Solar transit
	jTransit := 2451545.0 + jStar + 0.0053*math.Sin(mRad) - 0.0069*math.Sin(2*lambdaRad)

	// Declination of the sun
	sinDec := math.Sin(lambdaRad) * math.Sin(23.44*math.Pi/180.0)
	dec := math.Asin(sinDec)

	// Hour angle
	latRad := lat * math.Pi / 180.0
	angleRad := angle * math.Pi / 180.0

	cosOmega := (math.Sin(angleRad) - math.Sin(latRad)*math.Sin(dec)) / (math.Cos(latRad) * math.Cos(dec))

	// Out of range means the sun stays above (midnight sun) or below
	// (polar night) the horizon angle for the whole day.
	if cosOmega > 1 || cosOmega < -1 {
		return time.Time{}, false
	}

	omega := math.Acos(cosOmega) * 180.0 / math.Pi

	var jTime float64
	if rising {
		jTime = jTransit - omega/360.0
	} else {
		jTime = jTransit + omega/360.0
	}

	return julianToTime(jTime, date), true
}

// julianToTime converts a Julian day to a wall-clock instant on the
// reference date, in the reference date's timezone.
func julianToTime(jd float64, refDate time.Time) time.Time {
	unixTime := (jd - 2440587.5) * 86400.0
	t := time.Unix(int64(unixTime), int64((unixTime-math.Floor(unixTime))*1e9)).In(refDate.Location())

	return time.Date(
		refDate.Year(), refDate.Month(), refDate.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, refDate.Location(),
	)
}
