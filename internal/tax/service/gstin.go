package service

import (
	"regexp"
	"strings"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// ValidateGSTNumber checks the structure of a 15 character GSTIN. The check
// digit is not verified.
func (c *Calculator) ValidateGSTNumber(value string) bool {
	return gstinPattern.MatchString(strings.ToUpper(value))
}

func (c *Calculator) StateCodeFromGST(value string) string {
	if len(value) < 2 {
		return ""
	}
	return value[:2]
}
