package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// isoDateLayout is the canonical YYYY-MM-DD form stored in the database.
const isoDateLayout = "2006-01-02"

// NormalizeDate converts M/D/YYYY text to YYYY-MM-DD.
// It returns false when the text does not match the pattern, the month is
// outside 1-12, or the day is outside 1-31. Month lengths and leap years are
// not checked here.
func NormalizeDate(s string) (string, bool) {
	m := dobParts.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// DateOfBirthValue converts a record's date of birth to the value bound to
// the date_of_birth column. Missing, out-of-range and calendar-impossible
// dates (02/30/2020) all become NULL.
func DateOfBirthValue(dob *string) pgtype.Date {
	if dob == nil {
		return pgtype.Date{}
	}

	iso, ok := NormalizeDate(*dob)
	if !ok {
		return pgtype.Date{}
	}

	// time.Parse rejects days past the end of the month.
	t, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
