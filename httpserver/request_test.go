package httpserver_test

import (
	"encoding/json"
	"testing"

	"mflix/httpserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{input: `120`, want: intPtr(120)},
		{input: `-3`, want: intPtr(-3)},
		{input: `12.7`, want: intPtr(12)},
		{input: `"95"`, want: intPtr(95)},
		{input: `"  95 min"`, want: intPtr(95)},
		{input: `"1e3"`, want: intPtr(1)},
		{input: `"abc"`, want: nil},
		{input: `""`, want: nil},
		{input: `null`, want: nil},
		{input: `true`, want: nil},
		{input: `[1,2]`, want: nil},
		{input: `{"n":1}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req httpserver.MovieRequest

			err := json.Unmarshal([]byte(`{"runtime":`+tt.input+`}`), &req)

			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Runtime.Int())
		})
	}
}

func TestLooseInt_UnmarshalParam(t *testing.T) {
	var n httpserver.LooseInt

	require.NoError(t, n.UnmarshalParam("2004"))
	assert.Equal(t, intPtr(2004), n.Int())

	require.NoError(t, n.UnmarshalParam("n/a"))
	assert.Nil(t, n.Int())
}

func TestMovieRequest_ToMovie(t *testing.T) {
	var req httpserver.MovieRequest
	require.NoError(t, json.Unmarshal([]byte(
		`{"title":"Alien","plot":"In space no one can hear you scream.","genres":["Horror","Sci-Fi"],`+
			`"runtime":117,"rated":"R","year":"1979"}`), &req))

	m := req.ToMovie()

	assert.Empty(t, m.ID)
	assert.Equal(t, "Alien", m.Title)
	assert.Equal(t, []string{"Horror", "Sci-Fi"}, m.Genres)
	assert.Equal(t, intPtr(117), m.Runtime)
	assert.Equal(t, "R", m.Rated)
	assert.Equal(t, intPtr(1979), m.Year)
}

func TestLooseString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: `"Alien"`, want: "Alien"},
		{input: `1984`, want: "1984"},
		{input: `2.5`, want: "2.5"},
		{input: `true`, want: "true"},
		{input: `null`, want: ""},
		{input: `["a"]`, want: ""},
		{input: `{"a":1}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req httpserver.MovieRequest

			err := json.Unmarshal([]byte(`{"title":`+tt.input+`}`), &req)

			require.NoError(t, err)
			assert.Equal(t, tt.want, req.ToMovie().Title)
		})
	}
}

func TestLooseStrings_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: `["Drama","Crime"]`, want: []string{"Drama", "Crime"}},
		{input: `"Drama"`, want: []string{"Drama"}},
		{input: `["Drama",7,null,{}]`, want: []string{"Drama", "7"}},
		{input: `[]`, want: []string{}},
		{input: `null`, want: nil},
		{input: `{"a":1}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req httpserver.MovieRequest

			err := json.Unmarshal([]byte(`{"genres":`+tt.input+`}`), &req)

			require.NoError(t, err)
			assert.Equal(t, tt.want, req.ToMovie().Genres)
		})
	}
}
