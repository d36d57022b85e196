package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GenerateCourseCode builds the canonical offering code
// "{year}-{seriesCode}{levelCode}-{NN}". Inputs are upper-cased; the
// session number is zero-padded to two digits.
func GenerateCourseCode(year int, seriesCode, levelCode string, sessionNumber int) string {
	return fmt.Sprintf("%d-%s%s-%02d",
		year,
		strings.ToUpper(strings.TrimSpace(seriesCode)),
		strings.ToUpper(strings.TrimSpace(levelCode)),
		sessionNumber,
	)
}

var sessionSuffixPattern = regexp.MustCompile(`-(\d+)$`)

// SuggestNextSessionNumber scans existing codes sharing the
// "{year}-{seriesCode}{levelCode}-" prefix and returns the smallest session
// number after the highest in use, or 1 when none match.
func SuggestNextSessionNumber(existingCodes []string, year int, seriesCode, levelCode string) int {
	prefix := fmt.Sprintf("%d-%s%s-",
		year,
		strings.ToUpper(strings.TrimSpace(seriesCode)),
		strings.ToUpper(strings.TrimSpace(levelCode)),
	)

	highest := 0
	for _, code := range existingCodes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		match := sessionSuffixPattern.FindStringSubmatch(code)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// IsDuplicateCode reports whether code exactly matches any existing code.
func IsDuplicateCode(code string, existingCodes []string) bool {
	for _, existing := range existingCodes {
		if existing == code {
			return true
		}
	}
	return false
}
