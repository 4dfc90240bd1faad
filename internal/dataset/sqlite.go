package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/happyhackingspace/accessguru/features"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLite reads every row of table from the SQLite database at path.
// NULL cells read as empty strings.
func LoadSQLite(ctx context.Context, path, table string) (*features.Corpus, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("dataset: invalid table name %q", table)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(10000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, fmt.Errorf("dataset: query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	var cells [][]string
	scan := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range scan {
		dest[i] = &scan[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dataset: scan: %w", err)
		}
		row := make([]string, len(header))
		for i, v := range scan {
			row[i] = v.String
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return fromRows(header, cells)
}
