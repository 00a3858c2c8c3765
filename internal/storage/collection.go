package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"budgenet/internal/core"
	"budgenet/internal/log"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// codec maps one record type onto its table.
type codec[T any] struct {
	table   string
	columns []string // every column except id
	indexes map[string][]string
	id      func(T) int64
	values  func(T) []any
	scan    func(rowScanner) (T, error)
}

// Collection is a typed handle over one table of the store.
type Collection[T any] struct {
	store *Store
	codec codec[T]
}

func newCollection[T any](s *Store, c codec[T]) *Collection[T] {
	return &Collection[T]{store: s, codec: c}
}

func (c *Collection[T]) Name() string { return c.codec.table }

func (c *Collection[T]) selectList() string {
	return "id, " + strings.Join(c.codec.columns, ", ")
}

// Add inserts rec and returns its id. A zero id lets the store assign the
// next one.
func (c *Collection[T]) Add(ctx context.Context, rec T) (int64, error) {
	db, err := c.store.conn(ctx)
	if err != nil {
		return 0, err
	}

	cols := c.codec.columns
	args := c.codec.values(rec)
	if id := c.codec.id(rec); id != 0 {
		cols = append([]string{"id"}, cols...)
		args = append([]any{id}, args...)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.codec.table, strings.Join(cols, ", "), placeholders(len(cols)))

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("add to %s: %w", c.codec.table, mapConstraint(c.codec.table, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read %s id: %w", c.codec.table, err)
	}

	c.store.log.DebugContext(ctx, "Record added", log.NewFields().WithRecord(c.codec.table, id).WithOperation(log.OpCreate).ToSlice()...)
	return id, nil
}

// Get returns the record with the given id. A missing record is not an
// error: ok is false.
func (c *Collection[T]) Get(ctx context.Context, id int64) (rec T, ok bool, err error) {
	db, err := c.store.conn(ctx)
	if err != nil {
		return rec, false, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", c.selectList(), c.codec.table)
	rec, err = c.codec.scan(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("get %s %d: %w", c.codec.table, id, err)
	}
	return rec, true, nil
}

// GetAll returns every record ordered by id.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	db, err := c.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", c.selectList(), c.codec.table)
	return c.query(ctx, db, query)
}

// FindByIndex returns the records matching value on a named index, ordered
// by id.
func (c *Collection[T]) FindByIndex(ctx context.Context, index string, value any) ([]T, error) {
	where, args, err := c.indexWhere(index, value)
	if err != nil {
		return nil, err
	}
	db, err := c.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id", c.selectList(), c.codec.table, where)
	return c.query(ctx, db, query, args...)
}

func (c *Collection[T]) CountByIndex(ctx context.Context, index string, value any) (int, error) {
	where, args, err := c.indexWhere(index, value)
	if err != nil {
		return 0, err
	}
	db, err := c.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.codec.table, where)
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s by %s: %w", c.codec.table, index, err)
	}
	return n, nil
}

// Put writes rec, replacing any existing record with the same id. Seeding
// uses it with fixed ids so running it twice changes nothing.
func (c *Collection[T]) Put(ctx context.Context, rec T) (int64, error) {
	id := c.codec.id(rec)
	if id == 0 {
		return c.Add(ctx, rec)
	}
	db, err := c.store.conn(ctx)
	if err != nil {
		return 0, err
	}

	sets := make([]string, len(c.codec.columns))
	for i, col := range c.codec.columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", col, col)
	}
	query := fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		c.codec.table, strings.Join(c.codec.columns, ", "),
		placeholders(len(c.codec.columns)+1), strings.Join(sets, ", "))

	args := append([]any{id}, c.codec.values(rec)...)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("put %s %d: %w", c.codec.table, id, mapConstraint(c.codec.table, err))
	}

	c.store.log.DebugContext(ctx, "Record written", log.NewFields().WithRecord(c.codec.table, id).WithOperation(log.OpUpdate).ToSlice()...)
	return id, nil
}

// Update writes a record that already carries its id.
func (c *Collection[T]) Update(ctx context.Context, rec T) error {
	if c.codec.id(rec) == 0 {
		return fmt.Errorf("update %s: %w", c.codec.table, ErrMissingID)
	}
	_, err := c.Put(ctx, rec)
	return err
}

// Delete removes one record. Deleting an id that does not exist is not an
// error.
func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	err := c.store.inTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.codec.table)
		_, err := tx.ExecContext(ctx, query, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", c.codec.table, id, err)
	}
	c.store.log.DebugContext(ctx, "Record deleted", log.NewFields().WithRecord(c.codec.table, id).WithOperation(log.OpDelete).ToSlice()...)
	return nil
}

// DeleteAllByIndex deletes every record matching value on index and returns
// how many were removed. Matches are walked with a cursor and deleted inside
// one transaction, so either all of them go or none do.
func (c *Collection[T]) DeleteAllByIndex(ctx context.Context, index string, value any) (int, error) {
	where, args, err := c.indexWhere(index, value)
	if err != nil {
		return 0, err
	}

	var deleted int
	err = c.store.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s WHERE %s", c.codec.table, where), args...)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.codec.table)
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		deleted = len(ids)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete %s by %s: %w", c.codec.table, index, err)
	}

	c.store.log.InfoContext(ctx, "Records deleted by index",
		log.FieldCollection, c.codec.table,
		log.FieldIndex, index,
		log.FieldCount, deleted)
	return deleted, nil
}

func (c *Collection[T]) query(ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.codec.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := c.codec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.codec.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.codec.table, err)
	}
	return out, nil
}

// indexWhere builds the WHERE clause for a named index. Composite indexes
// take their key as a []any with one value per column.
func (c *Collection[T]) indexWhere(index string, value any) (string, []any, error) {
	cols, ok := c.codec.indexes[index]
	if !ok {
		return "", nil, fmt.Errorf("%s index %q: %w", c.codec.table, index, ErrUnknownIndex)
	}

	var args []any
	if len(cols) == 1 {
		args = []any{value}
	} else {
		parts, ok := value.([]any)
		if !ok || len(parts) != len(cols) {
			return "", nil, fmt.Errorf("%s index %q expects %d values", c.codec.table, index, len(cols))
		}
		args = append([]any(nil), parts...)
	}

	conds := make([]string, len(cols))
	for i, col := range cols {
		conds[i] = col + " = ?"
		args[i] = indexValue(args[i])
	}
	return strings.Join(conds, " AND "), args, nil
}

// indexValue converts domain values to the form they are stored in.
func indexValue(v any) any {
	switch x := v.(type) {
	case core.Date:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case core.TransactionType:
		return string(x)
	default:
		return v
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
