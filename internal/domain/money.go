package domain

import (
	"fmt"
	"strconv"
)

// FormatCents renders minor units as a decimal string with two fraction digits.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, strconv.FormatInt(cents/100, 10), cents%100)
}
