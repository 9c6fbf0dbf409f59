package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Row is a result row keyed by column name.
type Row map[string]any

// RowStore executes parameterized CRUD statements against named tables.
// Only identifiers declared in this package are written into the statement
// text; values are always bound.
type RowStore struct {
	conn    *sql.DB
	dialect dialect
	log     *zap.SugaredLogger
}

// Open connects to the database, verifies the connection and brings the
// schema up to date.
func Open(ctx context.Context, driver, dsn string, logger *zap.SugaredLogger) (*RowStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; ":memory:" databases also exist
		// per connection.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, db, d, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &RowStore{conn: db, dialect: d, log: logger}, nil
}

// NewRowStore wraps an already opened database. No migrations are run.
func NewRowStore(db *sql.DB, driver string, logger *zap.SugaredLogger) (*RowStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &RowStore{conn: db, dialect: d, log: logger}, nil
}

func (s *RowStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *RowStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *RowStore) storageErr(op string, table Table, err error) error {
	return &StorageError{
		Op:        op,
		Table:     table.name,
		Err:       err,
		duplicate: s.dialect.isUniqueViolation(err),
	}
}

// Select returns every row of table matching cond. Row order is undefined
// unless cond carries an ordering.
func (s *RowStore) Select(ctx context.Context, table Table, cond Condition) ([]Row, error) {
	query, args, err := buildSelect(s.dialect, table, cond, false)
	if err != nil {
		return nil, s.storageErr("select", table, err)
	}

	return s.query(ctx, "select", table, query, args)
}

// SelectOne returns the first row of table matching cond, or sql.ErrNoRows.
func (s *RowStore) SelectOne(ctx context.Context, table Table, cond Condition) (Row, error) {
	query, args, err := buildSelect(s.dialect, table, cond, true)
	if err != nil {
		return nil, s.storageErr("select", table, err)
	}

	rows, err := s.query(ctx, "select", table, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rows[0], nil
}

func (s *RowStore) query(ctx context.Context, op string, table Table, query string, args []any) ([]Row, error) {
	s.log.Debugw("query", "sql", query, "args", len(args))
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.storageErr(op, table, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, s.storageErr(op, table, err)
	}
	return result, nil
}

// Insert adds one row built from values. Empty values succeed without
// executing anything.
func (s *RowStore) Insert(ctx context.Context, table Table, values Values) error {
	if len(values) == 0 {
		return nil
	}

	query, args, err := buildInsert(s.dialect, table, values, nil)
	if err != nil {
		return s.storageErr("insert", table, err)
	}

	return s.exec(ctx, "insert", table, query, args)
}

// InsertReturning adds one row and returns the stored value of col, which
// lets callers learn store-assigned keys. Empty values succeed without
// executing anything and return nil.
func (s *RowStore) InsertReturning(ctx context.Context, table Table, values Values, col Column) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}

	query, args, err := buildInsert(s.dialect, table, values, &col)
	if err != nil {
		return nil, s.storageErr("insert", table, err)
	}

	s.log.Debugw("query", "sql", query, "args", len(args))
	var v any
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, s.storageErr("insert", table, err)
	}
	return normalize(v), nil
}

// Remove deletes the rows of table matching cond. Everything() empties the
// table.
func (s *RowStore) Remove(ctx context.Context, table Table, cond Condition) error {
	query, args, err := buildDelete(s.dialect, table, cond)
	if err != nil {
		return s.storageErr("delete", table, err)
	}

	return s.exec(ctx, "delete", table, query, args)
}

// Update sets values on the rows of table matching cond. Empty values
// succeed without executing anything.
func (s *RowStore) Update(ctx context.Context, table Table, values Values, cond Condition) error {
	if len(values) == 0 {
		return nil
	}

	query, args, err := buildUpdate(s.dialect, table, values, cond)
	if err != nil {
		return s.storageErr("update", table, err)
	}

	return s.exec(ctx, "update", table, query, args)
}

func (s *RowStore) exec(ctx context.Context, op string, table Table, query string, args []any) error {
	s.log.Debugw("exec", "sql", query, "args", len(args))
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return s.storageErr(op, table, err)
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(vals[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// normalize converts driver byte slices to strings so rows compare equal
// across drivers.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
