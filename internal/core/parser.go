package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FieldSeparator splits the fields of an import line.
const FieldSeparator = ":"

const (
	minFields = 7
	maxFields = 8
)

var (
	ssnPattern     = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	dobPattern     = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	dobParts       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	statePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
	zipCodePattern = regexp.MustCompile(`^\d{5}$`)
	lineBreak      = regexp.MustCompile(`\r?\n`)
)

// ParseDemographicFile parses FIRST:LAST:ADDRESS:CITY:STATE:ZIP:SSN[:DOB]
// lines. Blank lines are ignored and do not count toward line numbers.
// Every remaining line yields exactly one record or exactly one error.
func ParseDemographicFile(content string) ParseResult {
	var lines []string
	for _, line := range lineBreak.Split(content, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	result := ParseResult{
		Records:    make([]DemographicRecord, 0, len(lines)),
		TotalLines: len(lines),
	}

	for i, line := range lines {
		rec, err := parseLine(strings.TrimSpace(line))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %v", i+1, err))
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result
}

// parseLine validates a single trimmed line.
func parseLine(line string) (DemographicRecord, error) {
	parts := strings.Split(line, FieldSeparator)
	if len(parts) < minFields || len(parts) > maxFields {
		return DemographicRecord{}, fmt.Errorf("Invalid format - expected 7-8 fields, got %d", len(parts))
	}
	for len(parts) < maxFields {
		parts = append(parts, "")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	firstName, lastName, address, city := parts[0], parts[1], parts[2], parts[3]
	state, zipCode, ssn, dob := parts[4], parts[5], parts[6], parts[7]

	if firstName == "" || lastName == "" || ssn == "" {
		return DemographicRecord{}, errors.New("Missing required fields (first name, last name, or SSN)")
	}

	if !ssnPattern.MatchString(ssn) {
		return DemographicRecord{}, errors.New("Invalid SSN format - expected XXX-XX-XXXX")
	}

	var dateOfBirth *string
	if dob != "" {
		if !dobPattern.MatchString(dob) {
			return DemographicRecord{}, errors.New("Invalid date format - expected MM/DD/YYYY or empty")
		}
		dateOfBirth = &dob
	}

	normalizedState, err := normalizeState(state)
	if err != nil {
		return DemographicRecord{}, err
	}

	if zipCode != "" && !zipCodePattern.MatchString(zipCode) {
		return DemographicRecord{}, errors.New("Invalid zip code format - expected 5 digits")
	}

	// Fields are cloned so records do not pin the whole input text.
	if dateOfBirth != nil {
		d := strings.Clone(*dateOfBirth)
		dateOfBirth = &d
	}
	return DemographicRecord{
		FirstName:   strings.Clone(firstName),
		LastName:    strings.Clone(lastName),
		Address:     strings.Clone(address),
		City:        strings.Clone(city),
		State:       strings.Clone(normalizedState),
		ZipCode:     strings.Clone(zipCode),
		SSN:         strings.Clone(ssn),
		DateOfBirth: dateOfBirth,
	}, nil
}

// normalizeState uppercases the state and truncates overlong values to two
// characters; files sometimes carry a county or city name in this column.
func normalizeState(raw string) (string, error) {
	state := strings.TrimSpace(strings.ToUpper(raw))
	if statePattern.MatchString(state) {
		return state, nil
	}

	runes := []rune(state)
	switch {
	case len(runes) > 2:
		return string(runes[:2]), nil
	case len(runes) == 0:
		return "", errors.New("State is required")
	case len(runes) == 1:
		return "", fmt.Errorf("Invalid state format - expected 2 uppercase letters, got %q", raw)
	}
	// Two characters that are not both letters pass through unchanged.
	return state, nil
}
