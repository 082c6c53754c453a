package parse

import (
	"strconv"
	"strings"
)

// LeadingInteger returns the first contiguous run of ASCII digits in raw.
// Surrounding prose is tolerated, so "I believe the answer is 3" yields 3.
func LeadingInteger(raw string) (int, error) {
	start := strings.IndexFunc(raw, isDigit)
	if start < 0 {
		return 0, &NoIntegerFoundError{Raw: raw}
	}
	return digitRun(raw, start)
}

// StrictLeadingInteger requires the number to be the first token of raw.
// Leading whitespace and markdown or quoting characters are skipped; any
// other text before the digits is rejected.
func StrictLeadingInteger(raw string) (int, error) {
	trimmed := strings.TrimLeft(raw, " \t\r\n*#([\"'`")
	if trimmed == "" || !isDigit(rune(trimmed[0])) {
		return 0, &NoIntegerFoundError{Raw: raw, Reason: "reply does not start with a number"}
	}
	return digitRun(trimmed, 0)
}

func digitRun(s string, start int) (int, error) {
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, &NoIntegerFoundError{Raw: s, Reason: "number out of range"}
	}
	return n, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
