package store

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
)

const defaultListLimit = 100

// buildListQuery renders the cached-search listing for a SQL dialect.
// countExpr is the dialect's JSON array length expression over results.
func buildListQuery(filter SearchFilter, countExpr string, ph sq.PlaceholderFormat) (string, []any, error) {
	q := sq.Select("id", "keywords", "country", "page", countExpr, "timestamp").
		From("searches").
		OrderBy("timestamp DESC").
		PlaceholderFormat(ph)

	if filter.Keywords != "" {
		q = q.Where(sq.Like{"LOWER(keywords)": "%" + normalizeKey(filter.Keywords) + "%"})
	}
	if filter.Country != "" {
		q = q.Where(sq.Eq{"LOWER(country)": normalizeKey(filter.Country)})
	}
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"timestamp": formatTimestamp(filter.Since)})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q = q.Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build list query")
	}
	return query, args, nil
}
