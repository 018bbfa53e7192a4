package collocation

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"atmoseng/internal/harperr"
)

// Driver names a collocation-table backend. One of these selects which
// blank-imported sql driver Open uses.
type Driver string

const (
	Postgres     Driver = "postgres"
	MySQL        Driver = "mysql"
	SQLServer    Driver = "sqlserver"
	SQLite       Driver = "sqlite3"     // cgo, github.com/mattn/go-sqlite3
	SQLitePure   Driver = "sqlite"      // cgo-free, modernc.org/sqlite
)

// SQLTableSource loads collocation pairs from a row-oriented SQL table
// keyed by collocation_index with at minimum source_product_a,
// source_product_b, sample_index_a, sample_index_b columns, per §6's
// "collocation tabular input" contract.
type SQLTableSource struct {
	db        *sql.DB
	tableName string
}

// OpenSQLTableSource opens a connection with the named driver/DSN and
// wraps it as a Source reading from tableName.
func OpenSQLTableSource(driver Driver, dsn, tableName string) (*SQLTableSource, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, harperr.Wrapf(err, harperr.Import, "opening collocation table via %s", driver)
	}
	if err := db.Ping(); err != nil {
		return nil, harperr.Wrapf(err, harperr.Import, "connecting to collocation table via %s", driver)
	}
	return &SQLTableSource{db: db, tableName: tableName}, nil
}

// Close releases the underlying connection pool.
func (s *SQLTableSource) Close() error { return s.db.Close() }

// Load implements Source by issuing a single ORDER BY sample_index_<side>
// query, so the resulting Mask is already sorted by sample index per the
// §4.6 precondition for the merge-join path.
func (s *SQLTableSource) Load(q Query) (*Mask, error) {
	sampleCol := "sample_index_a"
	productCol := "source_product_a"
	if q.Side == Right {
		sampleCol = "sample_index_b"
		productCol = "source_product_b"
	}
	query := fmt.Sprintf(
		"SELECT collocation_index, %s FROM %s WHERE %s = ?",
		sampleCol, s.tableName, productCol,
	)
	args := []interface{}{q.SourceProduct}
	if q.Window != nil {
		query += " AND collocation_index BETWEEN ? AND ?"
		args = append(args, q.Window.Min, q.Window.Max)
	}
	query += " ORDER BY " + sampleCol

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, harperr.Wrap(err, harperr.Import, "querying collocation table")
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.CollocationIndex, &p.SampleIndex); err != nil {
			return nil, harperr.Wrap(err, harperr.Import, "scanning collocation row")
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, harperr.Wrap(err, harperr.Import, "reading collocation rows")
	}
	return New(pairs, BySampleIndex), nil
}
