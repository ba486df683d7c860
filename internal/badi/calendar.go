// Package badi converts between Gregorian dates and the Badí' calendar.
//
// A Badí' year has 18 months of 19 days, then Ayyám-i-Há (month 0, four or
// five days), then the 19th month 'Alá'. Naw-Rúz follows a fixed
// approximation: March 20 from 2015 onwards, March 21 before.
package badi

import (
	"errors"
	"fmt"
	"time"
)

const (
	// epochOffset is added to a Badí' year to get the Gregorian year of its Naw-Rúz.
	epochOffset = 1843

	daysPerMonth     = 19
	regularMonths    = 18
	regularYearDays  = regularMonths * daysPerMonth
	ayyamMonth       = 0
	alaMonth         = 19
	nawRuzSwitchYear = 2015
)

var ErrInvalidDate = errors.New("invalid badi date")

// Date is a Badí' calendar date. Month 0 is Ayyám-i-Há.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) String() string {
	return Format(d.Year, d.Month, d.Day)
}

// NawRuz returns the first day of the Badí' year that begins in gregorianYear.
func NawRuz(gregorianYear int) time.Time {
	if gregorianYear >= nawRuzSwitchYear {
		return civil(gregorianYear, time.March, 20)
	}
	return civil(gregorianYear, time.March, 21)
}

// IsLeapYear reports whether Ayyám-i-Há has five days in badiYear.
func IsLeapYear(badiYear int) bool {
	y := badiYear + epochOffset + 1
	return (y%4 == 0 && y%100 != 0) || y%400 == 0
}

// AyyamIHaDays is the length of the intercalary period of badiYear.
func AyyamIHaDays(badiYear int) int {
	if IsLeapYear(badiYear) {
		return 5
	}
	return 4
}

// DaysInMonth returns how many days the given month has in badiYear.
func DaysInMonth(badiYear, month int) (int, error) {
	switch {
	case month == ayyamMonth:
		return AyyamIHaDays(badiYear), nil
	case month >= 1 && month <= alaMonth:
		return daysPerMonth, nil
	}
	return 0, fmt.Errorf("%w: month %d out of range 0..19", ErrInvalidDate, month)
}

// ToBadi converts a Gregorian date. Only the calendar date of t is used.
func ToBadi(t time.Time) Date {
	g := civil(t.Year(), t.Month(), t.Day())

	nawRuz := NawRuz(g.Year())
	year := g.Year() - epochOffset
	if g.Before(nawRuz) {
		year = g.Year() - epochOffset - 1
		nawRuz = NawRuz(g.Year() - 1)
	}

	dayOfYear := daysBetween(nawRuz, g) + 1
	ayyam := AyyamIHaDays(year)

	switch {
	case dayOfYear <= regularYearDays:
		return Date{
			Year:  year,
			Month: (dayOfYear-1)/daysPerMonth + 1,
			Day:   (dayOfYear-1)%daysPerMonth + 1,
		}
	case dayOfYear <= regularYearDays+ayyam:
		return Date{Year: year, Month: ayyamMonth, Day: dayOfYear - regularYearDays}
	default:
		return Date{Year: year, Month: alaMonth, Day: dayOfYear - regularYearDays - ayyam}
	}
}

// ToGregorian converts a Badí' date to a UTC midnight time.
func ToGregorian(year, month, day int) (time.Time, error) {
	maxDay, err := DaysInMonth(year, month)
	if err != nil {
		return time.Time{}, err
	}
	if day < 1 || day > maxDay {
		return time.Time{}, fmt.Errorf("%w: day %d out of range 1..%d for month %d of year %d",
			ErrInvalidDate, day, maxDay, month, year)
	}

	var dayOfYear int
	switch month {
	case ayyamMonth:
		dayOfYear = regularYearDays + day
	case alaMonth:
		dayOfYear = regularYearDays + AyyamIHaDays(year) + day
	default:
		dayOfYear = (month-1)*daysPerMonth + day
	}

	return NawRuz(year+epochOffset).AddDate(0, 0, dayOfYear-1), nil
}

// MonthDateRange returns the first and last Gregorian day of a Badí' month.
func MonthDateRange(year, month int) (time.Time, time.Time, error) {
	last, err := DaysInMonth(year, month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := ToGregorian(year, month, 1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ToGregorian(year, month, last)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// YearDateRange spans 1 Bahá to 19 'Alá' of year.
func YearDateRange(year int) (time.Time, time.Time, error) {
	start, err := ToGregorian(year, 1, 1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ToGregorian(year, alaMonth, daysPerMonth)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// GregorianYearToBadiYear is a month-only approximation: March onwards is
// treated as after Naw-Rúz.
func GregorianYearToBadiYear(gregorianYear, gregorianMonth int) int {
	if gregorianMonth >= 3 {
		return gregorianYear - epochOffset
	}
	return gregorianYear - epochOffset - 1
}

// Today returns the Badí' date of now.
func Today(now time.Time) Date {
	return ToBadi(now)
}

// Format renders "<day> <month name> <year> BE".
func Format(year, month, day int) string {
	name := "Unknown"
	if m, ok := MonthByNumber(month); ok {
		name = m.Name
	}
	return fmt.Sprintf("%d %s %d BE", day, name, year)
}

func civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
