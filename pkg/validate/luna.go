package validate

import (
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

func IsLuna(s string) bool {
	err := goluhn.Validate(s)
	return err == nil
}

// IsCardNumber accepts 12 to 19 digit numbers passing the Luhn check.
// Spaces and dashes between digit groups are ignored.
func IsCardNumber(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	return IsLuna(digits)
}
