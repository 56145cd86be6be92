package movie

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Field identifies which single filter a list query applies.
type Field int

const (
	FieldNone Field = iota
	FieldTitle
	FieldPlot
	FieldYear
	FieldGenre
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldPlot:
		return "plot"
	case FieldYear:
		return "year"
	case FieldGenre:
		return "genre"
	}
	return "none"
}

// Filter holds at most one list condition.
//
//	FieldTitle  exact match on title
//	FieldPlot   case-insensitive substring match on plot
//	FieldYear   exact match on year; Year is nil when the input was not numeric
//	FieldGenre  genres contains Value
type Filter struct {
	Field Field
	Value string
	Year  *int
}

// NewFilter picks the first non-empty candidate in the order title, plot,
// year, genre. The remaining candidates are ignored even when set.
func NewFilter(title, plot, year, genre string) Filter {
	switch {
	case title != "":
		return Filter{Field: FieldTitle, Value: title}
	case plot != "":
		return Filter{Field: FieldPlot, Value: plot}
	case year != "":
		return Filter{Field: FieldYear, Value: year, Year: LooseIntPtr(year)}
	case genre != "":
		return Filter{Field: FieldGenre, Value: genre}
	}
	return Filter{}
}

// MatchesNothing reports whether the filter can be answered without asking
// the store, which is the case for a non-numeric year.
func (f Filter) MatchesNothing() bool {
	return f.Field == FieldYear && f.Year == nil
}

// Query describes one page of a filtered listing.
type Query struct {
	Page     int
	PageSize int
	Filter   Filter
}

// NewQuery parses raw page parameters. Missing, zero or non-numeric values
// fall back to the defaults; negative values are kept and rejected later.
func NewQuery(page, pageSize string, f Filter) Query {
	q := Query{Page: DefaultPage, PageSize: DefaultPageSize, Filter: f}
	if n, ok := ParseLooseInt(page); ok && n != 0 {
		q.Page = n
	}
	if n, ok := ParseLooseInt(pageSize); ok && n != 0 {
		q.PageSize = n
	}
	return q
}

func (q Query) Skip() int64 {
	return int64(q.Page-1) * int64(q.PageSize)
}

func (q Query) Limit() int64 {
	return int64(q.PageSize)
}

func (q Query) Validate() error {
	if q.Page < 1 || q.PageSize < 0 {
		return ErrInvalidPaging
	}
	return nil
}
