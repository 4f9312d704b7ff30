package dataset

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

const DefaultTable = "historical_automobile_sales"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads the sales table from a database. Rows go through the same
// validation as CSV rows.
type SQLSource struct {
	DB      *sql.DB
	Table   string
	Options ParseOptions

	name           string
	closeAfterLoad bool
}

func NewSQLSource(db *sql.DB, table string, opts ParseOptions) (*SQLSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}
	return &SQLSource{DB: db, Table: table, Options: opts, name: "sql"}, nil
}

func (s *SQLSource) Query() (string, []any, error) {
	return squirrel.
		Select(RequiredColumns...).
		From(s.Table).
		OrderBy(ColumnYear + " ASC").
		ToSql()
}

func (s *SQLSource) Load(ctx context.Context) (*Table, error) {
	if s.closeAfterLoad {
		defer s.DB.Close()
	}

	query, args, err := s.Query()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", s.Table)
	}
	defer rows.Close()

	raws := make([]rawRow, 0, batchSize)
	line := 0
	for rows.Next() {
		line++
		values := make([]sql.NullString, len(RequiredColumns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scan row %d", line)
		}

		fields := make(map[string]string, len(RequiredColumns))
		for i, col := range RequiredColumns {
			fields[col] = values[i].String
		}
		raws = append(raws, rawRow{line: line, fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	if len(raws) == 0 {
		return nil, ErrEmptyDataset
	}

	return decodeRows(ctx, raws, s.Options)
}

func (s *SQLSource) String() string {
	return s.name + "#" + s.Table
}
