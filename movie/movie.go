package movie

import (
	"strconv"
	"strings"

	"mflix/errs"
)

var (
	ErrNotFound      = errs.Errorf(errs.ENOTFOUND, "Movie not found")
	ErrInvalidID     = errs.Errorf(errs.EINVALID, "invalid movie id")
	ErrInvalidPaging = errs.Errorf(errs.EINVALID, "page and page size must not be negative")
)

// Movie is a record as written to the movies collection. Runtime and Year
// are nil when the submitted value had no leading digits. Reads come back
// as a Document.
type Movie struct {
	ID      string   `json:"_id"`
	Title   string   `json:"title"`
	Plot    string   `json:"plot"`
	Genres  []string `json:"genres"`
	Runtime *int     `json:"runtime"`
	Rated   string   `json:"rated"`
	Year    *int     `json:"year"`
}

// ParseLooseInt reads the leading integer of s the way a lenient form parser
// would: surrounding whitespace and an optional sign are accepted and
// anything after the digits is ignored ("120 min" is 120, "12.7" is 12).
// A "0x" prefix switches to hexadecimal ("0x1A" is 26). Values that do not
// fit in an int are reported as non-numeric.
func ParseLooseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	sign := s[:end]

	base, isDigit := 10, isDecimal
	if len(s)-end >= 2 && s[end] == '0' && (s[end+1] == 'x' || s[end+1] == 'X') {
		end += 2
		base, isDigit = 16, isHex
	}
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.ParseInt(sign+s[digits:end], base, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func isDecimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// LooseIntPtr is ParseLooseInt returning nil for non-numeric input.
func LooseIntPtr(s string) *int {
	n, ok := ParseLooseInt(s)
	if !ok {
		return nil
	}
	return &n
}
