package database

import (
	"errors"
	"slices"
	"strings"
)

var errEmptyIdentifier = errors.New("empty identifier")

// Column identifies a table column. Its name is unexported so that column
// identifiers can only originate from the property registry of this package;
// everything a caller supplies travels as a bound value.
type Column struct {
	name string
}

func (c Column) Name() string {
	return c.name
}

// Table identifies a table by name.
type Table struct {
	name string
}

func (t Table) Name() string {
	return t.name
}

// Condition is a WHERE clause made of a single column equality, or no
// restriction at all, optionally ordered by a column.
type Condition struct {
	column  *Column
	value   any
	orderBy *Column
}

// Everything matches every row of a table.
func Everything() Condition {
	return Condition{}
}

// Where matches rows whose column equals value. The value is always bound
// as a parameter.
func Where(col Column, value any) Condition {
	return Condition{column: &col, value: value}
}

// OrderBy returns a copy of the condition that sorts rows by col ascending.
func (c Condition) OrderBy(col Column) Condition {
	c.orderBy = &col
	return c
}

// Values maps columns to the values bound for them in an INSERT or UPDATE.
type Values map[Column]any

func (v Values) sortedColumns() []Column {
	cols := make([]Column, 0, len(v))
	for col := range v {
		cols = append(cols, col)
	}
	slices.SortFunc(cols, func(a, b Column) int {
		return strings.Compare(a.name, b.name)
	})
	return cols
}

// queryBuilder writes SQL text in which identifiers are quoted by the dialect
// and every value is replaced by a placeholder.
type queryBuilder struct {
	d    dialect
	sb   strings.Builder
	args []any
	err  error
}

func newQueryBuilder(d dialect) *queryBuilder {
	return &queryBuilder{d: d}
}

func (b *queryBuilder) raw(s string) *queryBuilder {
	b.sb.WriteString(s)
	return b
}

func (b *queryBuilder) ident(name string) *queryBuilder {
	if name == "" {
		b.err = errEmptyIdentifier
		return b
	}
	b.sb.WriteString(b.d.quoteIdent(name))
	return b
}

func (b *queryBuilder) bind(v any) *queryBuilder {
	b.args = append(b.args, v)
	b.sb.WriteString(b.d.placeholder(len(b.args)))
	return b
}

func (b *queryBuilder) where(c Condition) *queryBuilder {
	if c.column != nil {
		b.raw(" WHERE ").ident(c.column.name).raw(" = ").bind(c.value)
	}
	if c.orderBy != nil {
		b.raw(" ORDER BY ").ident(c.orderBy.name).raw(" ASC")
	}
	return b
}

func (b *queryBuilder) build() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	return b.sb.String(), b.args, nil
}

func buildSelect(d dialect, table Table, cond Condition, limit bool) (string, []any, error) {
	b := newQueryBuilder(d).raw("SELECT * FROM ").ident(table.name).where(cond)
	if limit {
		b.raw(" LIMIT 1")
	}
	return b.build()
}

func buildInsert(d dialect, table Table, values Values, returning *Column) (string, []any, error) {
	cols := values.sortedColumns()
	b := newQueryBuilder(d).raw("INSERT INTO ").ident(table.name).raw(" (")
	for i, col := range cols {
		if i > 0 {
			b.raw(", ")
		}
		b.ident(col.name)
	}
	b.raw(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			b.raw(", ")
		}
		b.bind(values[col])
	}
	b.raw(")")
	if returning != nil {
		b.raw(" RETURNING ").ident(returning.name)
	}
	return b.build()
}

func buildDelete(d dialect, table Table, cond Condition) (string, []any, error) {
	return newQueryBuilder(d).raw("DELETE FROM ").ident(table.name).where(cond).build()
}

// buildUpdate binds the new values first and the condition value last.
func buildUpdate(d dialect, table Table, values Values, cond Condition) (string, []any, error) {
	cond.orderBy = nil
	b := newQueryBuilder(d).raw("UPDATE ").ident(table.name).raw(" SET ")
	for i, col := range values.sortedColumns() {
		if i > 0 {
			b.raw(", ")
		}
		b.ident(col.name).raw(" = ").bind(values[col])
	}
	return b.where(cond).build()
}
