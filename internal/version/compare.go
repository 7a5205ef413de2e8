package version

import "strings"

const (
	rankMissing = iota
	rankAlpha
	rankNumeric
)

func versionTokens(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '.' || r == '-' || r == '+' || r == '_'
	})
}

func tokenRank(tokens []string, index int) int {
	if index >= len(tokens) {
		return rankMissing
	}
	if isNumeric(tokens[index]) {
		return rankNumeric
	}
	return rankAlpha
}

func isNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareNumeric orders digit strings of any length without parsing them.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// CompareVersions is a total order over loosely structured version strings. Components split on
// '.', '-', '+' and '_'; at each position a numeric component outranks an alphabetic one, which
// outranks a missing one. Numbers compare numerically, words case-insensitively.
func CompareVersions(a, b string) int {
	left := versionTokens(a)
	right := versionTokens(b)
	length := max(len(left), len(right))
	for index := 0; index < length; index++ {
		leftRank := tokenRank(left, index)
		rightRank := tokenRank(right, index)
		if leftRank != rightRank {
			if leftRank < rightRank {
				return -1
			}
			return 1
		}
		var result int
		if leftRank == rankNumeric {
			result = compareNumeric(left[index], right[index])
		} else {
			result = strings.Compare(strings.ToLower(left[index]), strings.ToLower(right[index]))
		}
		if result != 0 {
			return result
		}
	}
	return 0
}
