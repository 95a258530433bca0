package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// RecordFilter narrows a record listing. Zero dates leave that bound open.
type RecordFilter struct {
	ItemID int64
	From   time.Time
	To     time.Time
}

type RecordRepository interface {
	Create(ctx context.Context, rec *entity.PurchaseRecord) (*entity.PurchaseRecord, error)
	// ListByItem returns the item's records newest first.
	ListByItem(ctx context.Context, ownerID string, itemID int64) ([]entity.PurchaseRecord, error)
	// List returns records oldest first, with item and store names joined.
	List(ctx context.Context, ownerID string, filter RecordFilter) ([]entity.PurchaseRecord, error)
}

type recordRepository struct {
	conn    dialect.ExecQuerier
	dialect string
	logger  *slog.Logger
}

func newRecordRepository(conn dialect.ExecQuerier, d string, logger *slog.Logger) RecordRepository {
	return &recordRepository{conn: conn, dialect: d, logger: logger}
}

func (r *recordRepository) Create(ctx context.Context, rec *entity.PurchaseRecord) (*entity.PurchaseRecord, error) {
	if !rec.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", common.ErrInvalidInput)
	}
	if rec.PurchaseDate.IsZero() {
		return nil, fmt.Errorf("%w: purchase date is required", common.ErrInvalidInput)
	}
	out := *rec
	out.PurchaseDate = dateOnly(rec.PurchaseDate)
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(recordsTable).
		Columns("owner_id", "item_id", "store_id", "price", "purchase_date", "created_at").
		Values(out.OwnerID, out.ItemID, out.StoreID, out.Price.StringFixed(2), dateArg(out.PurchaseDate), timestampArg(out.CreatedAt)).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := r.conn.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to insert purchase record",
			"owner_id", out.OwnerID, "item_id", out.ItemID, "store_id", out.StoreID, "error", err)
		return nil, insertError(out, err)
	}
	defer rows.Close()

	id, err := entsql.ScanInt64(rows)
	if err != nil {
		return nil, insertError(out, err)
	}
	out.ID = id
	r.logger.Debug("purchase record created", "id", id, "owner_id", out.OwnerID, "item_id", out.ItemID)
	return &out, nil
}

func (r *recordRepository) ListByItem(ctx context.Context, ownerID string, itemID int64) ([]entity.PurchaseRecord, error) {
	sel, rt := r.joined(ownerID, RecordFilter{ItemID: itemID})
	sel.OrderBy(entsql.Desc(rt.C("purchase_date")), entsql.Desc(rt.C("id")))
	return r.query(ctx, sel)
}

func (r *recordRepository) List(ctx context.Context, ownerID string, filter RecordFilter) ([]entity.PurchaseRecord, error) {
	sel, rt := r.joined(ownerID, filter)
	sel.OrderBy(rt.C("purchase_date"), rt.C("id"))
	return r.query(ctx, sel)
}

func (r *recordRepository) joined(ownerID string, f RecordFilter) (*entsql.Selector, *entsql.SelectTable) {
	b := entsql.Dialect(r.dialect)
	rt := b.Table(recordsTable).As("r")
	it := b.Table(itemsTable).As("i")
	st := b.Table(storesTable).As("s")

	preds := []*entsql.Predicate{entsql.EQ(rt.C("owner_id"), ownerID)}
	if f.ItemID > 0 {
		preds = append(preds, entsql.EQ(rt.C("item_id"), f.ItemID))
	}
	if !f.From.IsZero() {
		preds = append(preds, entsql.GTE(rt.C("purchase_date"), dateArg(f.From)))
	}
	if !f.To.IsZero() {
		preds = append(preds, entsql.LTE(rt.C("purchase_date"), dateArg(f.To)))
	}

	sel := b.Select(
		rt.C("id"), rt.C("owner_id"), rt.C("item_id"), rt.C("store_id"),
		rt.C("price"), rt.C("purchase_date"), rt.C("created_at"),
		it.C("name"), st.C("name"),
	).
		From(rt).
		Join(it).On(rt.C("item_id"), it.C("id")).
		Join(st).On(rt.C("store_id"), st.C("id")).
		Where(entsql.And(preds...))
	return sel, rt
}

func (r *recordRepository) query(ctx context.Context, sel *entsql.Selector) ([]entity.PurchaseRecord, error) {
	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.conn.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to list purchase records", "error", err)
		return nil, dbError("list records", err)
	}
	defer rows.Close()

	out := make([]entity.PurchaseRecord, 0)
	for rows.Next() {
		var rec entity.PurchaseRecord
		var date, createdAt timeValue
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.ItemID, &rec.StoreID,
			&rec.Price, &date, &createdAt, &rec.ItemName, &rec.StoreName); err != nil {
			return nil, dbError("scan record", err)
		}
		rec.PurchaseDate = dateOnly(date.Time)
		rec.CreatedAt = createdAt.Time
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list records", err)
	}
	return out, nil
}

func insertError(rec entity.PurchaseRecord, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: item %d or store %d no longer exists", common.ErrNotFound, rec.ItemID, rec.StoreID)
	}
	return dbError("insert record", err)
}
