package database

import "context"

// entityAccess implements the validated read/delete/edit operations shared
// by every entity. Property tokens are checked against the registry before
// any condition is built.
type entityAccess[T any] struct {
	store  *RowStore
	entity Entity
	decode func(Row) (T, error)
}

func (a entityAccess[T]) table() Table {
	return tableOf(a.entity)
}

func (a entityAccess[T]) condition(p *Property, value any) (Condition, error) {
	if !IsValidProperty(a.entity, p) {
		return Condition{}, invalidProperty(a.entity, p)
	}
	return Where(p.column, value), nil
}

func (a entityAccess[T]) list(ctx context.Context, cond Condition) ([]T, error) {
	rows, err := a.store.Select(ctx, a.table(), cond)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := a.decode(row)
		if err != nil {
			return nil, &StorageError{Op: "decode", Table: a.table().name, Err: err}
		}
		items = append(items, item)
	}
	return items, nil
}

func (a entityAccess[T]) getAll(ctx context.Context, p *Property, value any) ([]T, error) {
	cond, err := a.condition(p, value)
	if err != nil {
		return nil, err
	}
	return a.list(ctx, cond)
}

func (a entityAccess[T]) getOne(ctx context.Context, p *Property, value any) (T, error) {
	var zero T
	cond, err := a.condition(p, value)
	if err != nil {
		return zero, err
	}

	row, err := a.store.SelectOne(ctx, a.table(), cond)
	if err != nil {
		return zero, err
	}

	item, err := a.decode(row)
	if err != nil {
		return zero, &StorageError{Op: "decode", Table: a.table().name, Err: err}
	}
	return item, nil
}

func (a entityAccess[T]) delete(ctx context.Context, p *Property, value any) error {
	cond, err := a.condition(p, value)
	if err != nil {
		return err
	}
	return a.store.Remove(ctx, a.table(), cond)
}

func (a entityAccess[T]) deleteAll(ctx context.Context) error {
	return a.store.Remove(ctx, a.table(), Everything())
}

// edit keeps only the keys of newValues that name an attribute of the
// entity. Unknown keys are dropped; if none remain nothing is executed.
func (a entityAccess[T]) edit(ctx context.Context, p *Property, value any, newValues map[string]any) error {
	cond, err := a.condition(p, value)
	if err != nil {
		return err
	}

	values := make(Values, len(newValues))
	for name, v := range newValues {
		if prop, ok := Lookup(a.entity, name); ok {
			values[prop.column] = v
		}
	}

	return a.store.Update(ctx, a.table(), values, cond)
}
