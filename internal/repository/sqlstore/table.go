package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/metrics"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// Table implements resource.Repository for any document type described by
// a Schema
type Table[T any] struct {
	db     *DB
	schema Schema[T]
}

// NewTable creates a repository over schema
func NewTable[T any](db *DB, schema Schema[T]) *Table[T] {
	return &Table[T]{db: db, schema: schema}
}

func (t *Table[T]) observe(op string, start time.Time) {
	metrics.RecordDBQuery(op, t.schema.Table, time.Since(start))
}

// Create inserts every column of doc
func (t *Table[T]) Create(ctx context.Context, doc *T) error {
	defer t.observe("insert", time.Now())

	cols := t.schema.Columns
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = c.Value(doc)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.schema.Table, columnNames(cols), placeholders(len(cols)))

	if _, err := t.db.ExecContext(ctx, t.db.Dialect.Rebind(query), args...); err != nil {
		return errors.DatabaseError(fmt.Sprintf("Failed to create %s", t.schema.Name), err)
	}
	return nil
}

// FetchOne retrieves a document by identifier
func (t *Table[T]) FetchOne(ctx context.Context, id string) (*T, error) {
	defer t.observe("select", time.Now())

	cols := t.schema.Columns
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		columnNames(cols), t.schema.Table, t.schema.idColumn().Name)

	doc := t.schema.New()
	err := t.db.QueryRowContext(ctx, t.db.Dialect.Rebind(query), id).Scan(scanTargets(cols, doc)...)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(t.schema.Name)
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("Failed to get %s", t.schema.Name), err)
	}
	return doc, nil
}

// FetchMany counts the matches with a query of its own, then loads the
// page. Nothing is loaded when nothing matches.
func (t *Table[T]) FetchMany(ctx context.Context, base query.Filter, plan query.Plan) ([]*T, int64, error) {
	defer t.observe("select_many", time.Now())

	where, args, err := t.schema.where(base.And(plan.Filter))
	if err != nil {
		return nil, 0, errors.Internal(fmt.Sprintf("Invalid %s filter", t.schema.Name), err)
	}

	total, err := t.Count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(plan.Skip) >= total {
		return nil, total, nil
	}

	cols := t.schema.selected(plan.Fields)
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s%s", columnNames(cols), t.schema.Table, where, t.schema.orderBy(plan.Sort))
	pageArgs := append(append([]any(nil), args...), plan.Limit, plan.Skip)
	b.WriteString(" LIMIT ? OFFSET ?")

	rows, err := t.db.QueryContext(ctx, t.db.Dialect.Rebind(b.String()), pageArgs...)
	if err != nil {
		return nil, 0, errors.DatabaseError(fmt.Sprintf("Failed to list %s", t.schema.Table), err)
	}
	defer rows.Close()

	var docs []*T
	for rows.Next() {
		doc := t.schema.New()
		if err := rows.Scan(scanTargets(cols, doc)...); err != nil {
			return nil, 0, errors.DatabaseError(fmt.Sprintf("Failed to scan %s", t.schema.Name), err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError(fmt.Sprintf("Failed to list %s", t.schema.Table), err)
	}

	return docs, total, nil
}

// Count returns the number of rows matching a rendered WHERE clause
func (t *Table[T]) Count(ctx context.Context, where string, args []any) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", t.schema.Table, where)

	var total int64
	if err := t.db.QueryRowContext(ctx, t.db.Dialect.Rebind(query), args...).Scan(&total); err != nil {
		return 0, errors.DatabaseError(fmt.Sprintf("Failed to count %s", t.schema.Table), err)
	}
	return total, nil
}

// Update replaces every non-identifier column of doc
func (t *Table[T]) Update(ctx context.Context, doc *T) error {
	defer t.observe("update", time.Now())

	idCol := t.schema.idColumn()
	var sets []string
	var args []any
	for _, c := range t.schema.Columns {
		if c.Name == idCol.Name {
			continue
		}
		sets = append(sets, c.Name+" = ?")
		args = append(args, c.Value(doc))
	}
	args = append(args, t.schema.ID(doc))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		t.schema.Table, strings.Join(sets, ", "), idCol.Name)

	result, err := t.db.ExecContext(ctx, t.db.Dialect.Rebind(query), args...)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("Failed to update %s", t.schema.Name), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound(t.schema.Name)
	}
	return nil
}

// Delete removes a document
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	defer t.observe("delete", time.Now())

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.schema.Table, t.schema.idColumn().Name)

	result, err := t.db.ExecContext(ctx, t.db.Dialect.Rebind(query), id)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("Failed to delete %s", t.schema.Name), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound(t.schema.Name)
	}
	return nil
}

func scanTargets[T any](cols []Column[T], doc *T) []any {
	targets := make([]any, len(cols))
	for i, c := range cols {
		targets[i] = c.Scan(doc)
	}
	return targets
}
