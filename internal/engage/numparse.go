package engage

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// countPattern matches a number with an optional magnitude suffix as it
// appears in post pages: "12.5k", "1,2 mi", "850 mil", "3". The longer
// suffixes come first so "mil" is not consumed as "mi" plus a stray "l".
var countPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(mil|mi|k|m|b)?\b`)

var suffixMultipliers = map[string]float64{
	"k":   1_000,
	"mil": 1_000, // portuguese thousand
	"m":   1_000_000,
	"mi":  1_000_000, // portuguese million abbreviation
	"b":   1_000_000_000,
}

// ParseCount extracts the first numeric count from a text fragment,
// handling both decimal separators and the k/m/b and mil/mi magnitude
// suffixes used on Brazilian post pages. Text with no parsable number
// ("muitas curtidas") yields zero.
func ParseCount(text string) int64 {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	num := strings.ReplaceAll(m[1], ",", ".")
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	if suffix := strings.ToLower(m[2]); suffix != "" {
		value *= suffixMultipliers[suffix]
	}
	return int64(math.Floor(value))
}
