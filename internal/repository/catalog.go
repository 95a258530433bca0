package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// CatalogRepository stores one owner-scoped catalog of named entities. Items
// and stores share the same shape and the same repository.
type CatalogRepository interface {
	Create(ctx context.Context, ownerID, name string) (*entity.NamedEntity, error)
	List(ctx context.Context, ownerID string) ([]entity.NamedEntity, error)
	Get(ctx context.Context, ownerID string, id int64) (*entity.NamedEntity, error)
	Rename(ctx context.Context, ownerID string, id int64, name string) (*entity.NamedEntity, error)
	Delete(ctx context.Context, ownerID string, id int64) error
}

type catalogRepository struct {
	conn    dialect.ExecQuerier
	dialect string
	table   string
	// refColumn is the records column pointing at this table.
	refColumn string
	logger    *slog.Logger
}

func newCatalogRepository(conn dialect.ExecQuerier, d, table string, logger *slog.Logger) CatalogRepository {
	ref := "item_id"
	if table == storesTable {
		ref = "store_id"
	}
	return &catalogRepository{
		conn:      conn,
		dialect:   d,
		table:     table,
		refColumn: ref,
		logger:    logger,
	}
}

func (r *catalogRepository) Create(ctx context.Context, ownerID, name string) (*entity.NamedEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: %s name is required", common.ErrInvalidInput, r.kind())
	}
	query, args := entsql.Dialect(r.dialect).
		Insert(r.table).
		Columns("owner_id", "name").
		Values(ownerID, name).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := r.conn.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to insert catalog entry", "table", r.table, "owner_id", ownerID, "error", err)
		return nil, dbError("insert "+r.kind(), err)
	}
	defer rows.Close()

	id, err := entsql.ScanInt64(rows)
	if err != nil {
		return nil, dbError("insert "+r.kind(), err)
	}
	r.logger.Debug("catalog entry created", "table", r.table, "id", id, "owner_id", ownerID)
	return &entity.NamedEntity{ID: id, OwnerID: ownerID, Name: name}, nil
}

func (r *catalogRepository) List(ctx context.Context, ownerID string) ([]entity.NamedEntity, error) {
	b := entsql.Dialect(r.dialect)
	t := b.Table(r.table)
	query, args := b.Select(t.C("id"), t.C("owner_id"), t.C("name")).
		From(t).
		Where(entsql.EQ(t.C("owner_id"), ownerID)).
		OrderBy(t.C("id")).
		Query()

	var rows entsql.Rows
	if err := r.conn.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to list catalog", "table", r.table, "owner_id", ownerID, "error", err)
		return nil, dbError("list "+r.table, err)
	}
	defer rows.Close()

	out := make([]entity.NamedEntity, 0)
	for rows.Next() {
		var e entity.NamedEntity
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name); err != nil {
			return nil, dbError("scan "+r.kind(), err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list "+r.table, err)
	}
	return out, nil
}

func (r *catalogRepository) Get(ctx context.Context, ownerID string, id int64) (*entity.NamedEntity, error) {
	b := entsql.Dialect(r.dialect)
	t := b.Table(r.table)
	query, args := b.Select(t.C("id"), t.C("owner_id"), t.C("name")).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("id"), id),
			entsql.EQ(t.C("owner_id"), ownerID),
		)).
		Query()

	var rows entsql.Rows
	if err := r.conn.Query(ctx, query, args, &rows); err != nil {
		return nil, dbError("get "+r.kind(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dbError("get "+r.kind(), err)
		}
		return nil, fmt.Errorf("%w: %s %d", common.ErrNotFound, r.kind(), id)
	}
	var e entity.NamedEntity
	if err := rows.Scan(&e.ID, &e.OwnerID, &e.Name); err != nil {
		return nil, dbError("scan "+r.kind(), err)
	}
	return &e, nil
}

func (r *catalogRepository) Rename(ctx context.Context, ownerID string, id int64, name string) (*entity.NamedEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: %s name is required", common.ErrInvalidInput, r.kind())
	}
	query, args := entsql.Dialect(r.dialect).
		Update(r.table).
		Set("name", name).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("owner_id", ownerID),
		)).
		Query()

	n, err := r.exec(ctx, query, args)
	if err != nil {
		return nil, dbError("rename "+r.kind(), err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s %d", common.ErrNotFound, r.kind(), id)
	}
	return &entity.NamedEntity{ID: id, OwnerID: ownerID, Name: name}, nil
}

// Delete removes an entry that no purchase record references.
func (r *catalogRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	b := entsql.Dialect(r.dialect)
	rt := b.Table(recordsTable)
	countQuery, countArgs := b.Select(entsql.Count("*")).
		From(rt).
		Where(entsql.And(
			entsql.EQ(rt.C(r.refColumn), id),
			entsql.EQ(rt.C("owner_id"), ownerID),
		)).
		Query()

	var rows entsql.Rows
	if err := r.conn.Query(ctx, countQuery, countArgs, &rows); err != nil {
		return dbError("count references", err)
	}
	refs, err := entsql.ScanInt64(rows)
	_ = rows.Close()
	if err != nil {
		return dbError("count references", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %s %d is used by %d purchase records", common.ErrConflict, r.kind(), id, refs)
	}

	query, args := b.Delete(r.table).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("owner_id", ownerID),
		)).
		Query()
	n, err := r.exec(ctx, query, args)
	if isForeignKeyViolation(err) {
		// a record was written between the count and the delete
		return fmt.Errorf("%w: %s %d is used by purchase records", common.ErrConflict, r.kind(), id)
	}
	if err != nil {
		r.logger.Error("failed to delete catalog entry", "table", r.table, "id", id, "error", err)
		return dbError("delete "+r.kind(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", common.ErrNotFound, r.kind(), id)
	}
	r.logger.Info("catalog entry deleted", "table", r.table, "id", id, "owner_id", ownerID)
	return nil
}

func (r *catalogRepository) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := r.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *catalogRepository) kind() string {
	if r.table == storesTable {
		return string(entity.KindStore)
	}
	return string(entity.KindItem)
}

// CatalogSource adapts the item and store repositories to the catalog
// service's read-only view.
type CatalogSource struct {
	Items  CatalogRepository
	Stores CatalogRepository
}

func (s CatalogSource) FetchItems(ctx context.Context, ownerID string) ([]entity.NamedEntity, error) {
	return s.Items.List(ctx, ownerID)
}

func (s CatalogSource) FetchStores(ctx context.Context, ownerID string) ([]entity.NamedEntity, error) {
	return s.Stores.List(ctx, ownerID)
}

// dbError wraps a driver error with ErrDatabase unless it already carries
// one of the application sentinels.
func dbError(op string, err error) error {
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrDatabase) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrDatabase, op, err)
}

// SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

// isForeignKeyViolation recognizes FK failures from both pgx and SQLite.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY"))
	}
	return false
}
