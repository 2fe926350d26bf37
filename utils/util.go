package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeRegex = regexp.MustCompile(`(?i)^\s*([\d.,]+)\s*(B|KB|KiB|MB|MiB|GB|GiB|TB|TiB)\s*$`)

var sizeUnits = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// ParseSize converts a human readable size ("1.5 GB", "2,75 MB") into bytes.
// Unknown formats yield 0.
func ParseSize(sizeStr string) int64 {
	m := sizeRegex.FindStringSubmatch(sizeStr)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	unit := strings.ToUpper(strings.Replace(m[2], "i", "", 1))
	return int64(value * float64(sizeUnits[unit]))
}
