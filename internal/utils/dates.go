package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of expiration dates
const DateLayout = "2006-01-02"

// DaysPerYear is the ACT/365 day count
const DaysPerYear = 365.0

// CalculateNextOptionsExpiration returns the next third Friday for options expiration
func CalculateNextOptionsExpiration() string {
	return NextOptionsExpiration(time.Now())
}

// NextOptionsExpiration implements the standard options expiration business logic:
// - Third Friday of the current month if we haven't reached the expiration week yet
// - Third Friday of next month if we're in or past the expiration week
func NextOptionsExpiration(today time.Time) string {
	thirdFriday := thirdFridayOf(today.Year(), today.Month(), today.Location())

	// If current day is in the week of 3rd Friday or past it, use next month's 3rd Friday
	weekStart := thirdFriday.AddDate(0, 0, -7)
	if today.After(weekStart) || today.Equal(weekStart) {
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		return thirdFridayOf(next.Year(), next.Month(), today.Location()).Format(DateLayout)
	}

	return thirdFriday.Format(DateLayout)
}

func thirdFridayOf(year int, month time.Month, loc *time.Location) time.Time {
	firstFriday := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for firstFriday.Weekday() != time.Friday {
		firstFriday = firstFriday.AddDate(0, 0, 1)
	}
	return firstFriday.AddDate(0, 0, 14)
}

// YearsToExpiration converts a YYYY-MM-DD expiration date into years from
// now's calendar date using ACT/365. Past dates give a negative result.
func YearsToExpiration(expirationDate string, now time.Time) (float64, error) {
	expiry, err := time.ParseInLocation(DateLayout, expirationDate, now.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid expiration date format: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := expiry.Sub(today).Hours() / 24
	return days / DaysPerYear, nil
}
