package utils

import (
	"strconv"
	"strings"
)

const bytesPerUnit = 1024

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte length with a lower-case unit. Values under
// ten units keep one decimal, larger values are rounded.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0" + sizeUnits[0]
	}
	if bytes < bytesPerUnit {
		return strconv.FormatInt(bytes, 10) + sizeUnits[0]
	}

	scaled := float64(bytes)
	unit := 0
	for scaled >= bytesPerUnit && unit < len(sizeUnits)-1 {
		scaled /= bytesPerUnit
		unit++
	}
	precision := 0
	if scaled < 10 {
		precision = 1
	}
	rendered := strconv.FormatFloat(scaled, 'f', precision, 64)
	return strings.TrimSuffix(rendered, ".0") + sizeUnits[unit]
}
