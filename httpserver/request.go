package httpserver

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"mflix/movie"
)

// MovieRequest is the body accepted by POST and PUT /movie. No field is
// required and no value fails the bind; a missing or unusable field is
// stored as null.
type MovieRequest struct {
	Title   LooseString  `json:"title" form:"title"`
	Plot    LooseString  `json:"plot" form:"plot"`
	Genres  LooseStrings `json:"genres" form:"genres"`
	Runtime LooseInt     `json:"runtime" form:"runtime"`
	Rated   LooseString  `json:"rated" form:"rated"`
	Year    LooseInt     `json:"year" form:"year"`
}

func (r MovieRequest) ToMovie() movie.Movie {
	return movie.Movie{
		Title:   string(r.Title),
		Plot:    string(r.Plot),
		Genres:  []string(r.Genres),
		Runtime: r.Runtime.Int(),
		Rated:   string(r.Rated),
		Year:    r.Year.Int(),
	}
}

// LooseString takes a JSON string as is and the literal text of a number or
// boolean. Null, arrays and objects decode to "".
type LooseString string

func (l *LooseString) UnmarshalJSON(data []byte) error {
	*l = ""

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*l = LooseString(s)
		}
	case '{', '[', 'n':
	default:
		*l = LooseString(data)
	}
	return nil
}

// LooseStrings takes a JSON array or a single value. Elements are decoded
// like LooseString and empty ones are dropped.
type LooseStrings []string

func (l *LooseStrings) UnmarshalJSON(data []byte) error {
	*l = nil

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var s LooseString
		if err := s.UnmarshalJSON(data); err == nil && s != "" {
			*l = LooseStrings{string(s)}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make(LooseStrings, 0, len(items))
	for _, item := range items {
		var s LooseString
		if err := s.UnmarshalJSON(item); err == nil && s != "" {
			out = append(out, string(s))
		}
	}
	*l = out
	return nil
}

// LooseInt accepts a JSON number, a numeric string such as "120 min", or
// anything else. Input without leading digits decodes to nil instead of
// failing the request.
type LooseInt struct {
	n *int
}

func (l LooseInt) Int() *int {
	return l.n
}

func (l *LooseInt) UnmarshalJSON(data []byte) error {
	l.n = nil

	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			l.n = movie.LooseIntPtr(s)
		}
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(math.Trunc(f))
	l.n = &n
	return nil
}

// UnmarshalParam lets echo bind form values.
func (l *LooseInt) UnmarshalParam(param string) error {
	l.n = movie.LooseIntPtr(param)
	return nil
}
