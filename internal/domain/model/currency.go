package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code is an uppercased three-letter currency code such as "USD".
type Code string

// ParseCode validates a currency token: exactly three letters, any case.
func ParseCode(s string) (Code, bool) {
	if utf8.RuneCountInString(s) != 3 {
		return "", false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return Code(strings.ToUpper(s)), true
}

func (c Code) String() string {
	return string(c)
}
