package retrieval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/moviemind-ai/moviemind/internal/storage"
)

// orderableColumns is the allow-list for ORDER BY. Identifiers are never
// interpolated from model output, only checked against this set.
var orderableColumns = map[string]bool{
	"title":        true,
	"release_date": true,
	"popularity":   true,
	"vote_average": true,
}

// QueryBuilder turns a FilterSpec into a parameterized SELECT over the movies
// table. Every value travels as a bind parameter; the SQL text only ever
// contains trusted column names.
type QueryBuilder struct {
	dialect      storage.Dialect
	defaultLimit int
	maxLimit     int
}

// NewQueryBuilder creates a builder for the given dialect. defaultLimit is
// used when a tool call carries no limit, maxLimit caps whatever it asks for.
func NewQueryBuilder(dialect storage.Dialect, defaultLimit, maxLimit int) *QueryBuilder {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &QueryBuilder{dialect: dialect, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Build constructs the query text and its parameter list. Filters are applied
// with AND in the order they were given; limit and offset are always
// the last two parameters.
func (b *QueryBuilder) Build(spec *FilterSpec) (string, []interface{}, error) {
	var (
		conditions []string
		params     []interface{}
	)

	next := func() string { return b.dialect.Placeholder(len(params) + 1) }

	for _, f := range spec.Filters {
		if !filterColumns[f.Column] {
			return "", nil, fmt.Errorf("unknown filter column %q", f.Column)
		}
		switch f.Value.Kind {
		case KindList:
			placeholders := make([]string, len(f.Value.List))
			for i, item := range f.Value.List {
				params = append(params, item)
				placeholders[i] = b.dialect.Placeholder(len(params))
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", f.Column, strings.Join(placeholders, ", ")))

		case KindNumber:
			if f.Column == "release_date" {
				// A bare number against the release date means a year.
				cond := fmt.Sprintf("EXTRACT(YEAR FROM %s) = %s", f.Column, next())
				if b.dialect == storage.DialectSQLite {
					cond = fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER) = %s", f.Column, next())
				}
				params = append(params, int(f.Value.Number))
				conditions = append(conditions, cond)
				break
			}
			conditions = append(conditions, fmt.Sprintf("%s = %s", f.Column, next()))
			params = append(params, f.Value.Number)

		case KindBool:
			conditions = append(conditions, fmt.Sprintf("%s = %s", f.Column, next()))
			params = append(params, f.Value.Bool)

		case KindText:
			if f.Column == "release_date" {
				if year, ok := bareYear(f.Value.Text); ok {
					cond := fmt.Sprintf("EXTRACT(YEAR FROM %s) = %s", f.Column, next())
					if b.dialect == storage.DialectSQLite {
						cond = fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER) = %s", f.Column, next())
					}
					params = append(params, year)
					conditions = append(conditions, cond)
					break
				}
				normalized, ok := NormalizeDate(f.Value.Text)
				if ok {
					cond := fmt.Sprintf("%s = %s::date", f.Column, next())
					if b.dialect == storage.DialectSQLite {
						cond = fmt.Sprintf("date(%s) = %s", f.Column, next())
					}
					params = append(params, normalized)
					conditions = append(conditions, cond)
				} else {
					// Not a recognized date; match it as a substring of
					// the stored value instead of failing the query.
					cond := fmt.Sprintf("%s::text ILIKE %s", f.Column, next())
					if b.dialect == storage.DialectSQLite {
						cond = fmt.Sprintf("CAST(%s AS TEXT) LIKE %s", f.Column, next())
					}
					params = append(params, "%"+f.Value.Text+"%")
					conditions = append(conditions, cond)
				}
				break
			}
			cond := fmt.Sprintf("%s ILIKE %s", f.Column, next())
			if b.dialect == storage.DialectSQLite {
				cond = fmt.Sprintf("%s LIKE %s", f.Column, next())
			}
			params = append(params, "%"+f.Value.Text+"%")
			conditions = append(conditions, cond)

		default:
			return "", nil, fmt.Errorf("unsupported value kind for column %q", f.Column)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(storage.Columns)
	sb.WriteString(" FROM movies")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}

	if spec.OrderBy != "" {
		if !orderableColumns[spec.OrderBy] {
			return "", nil, fmt.Errorf("cannot order by %q", spec.OrderBy)
		}
		direction := strings.ToLower(spec.OrderDirection)
		if direction == "" {
			direction = "asc"
		}
		if direction != "asc" && direction != "desc" {
			return "", nil, fmt.Errorf("invalid order direction %q", spec.OrderDirection)
		}
		sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", spec.OrderBy, strings.ToUpper(direction)))
	} else if spec.OrderDirection != "" {
		return "", nil, fmt.Errorf("order_direction given without order_by")
	}

	limit := spec.Limit
	if limit <= 0 {
		limit = b.defaultLimit
	}
	if limit > b.maxLimit {
		limit = b.maxLimit
	}
	offset := spec.Offset
	if offset < 0 {
		offset = 0
	}

	sb.WriteString(fmt.Sprintf(" LIMIT %s", b.dialect.Placeholder(len(params)+1)))
	params = append(params, limit)
	sb.WriteString(fmt.Sprintf(" OFFSET %s", b.dialect.Placeholder(len(params)+1)))
	params = append(params, offset)

	return sb.String(), params, nil
}

// bareYear reports whether s is exactly four digits, returning the year value.
// "2010" means the year 2010, not a date substring.
func bareYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return year, true
}
