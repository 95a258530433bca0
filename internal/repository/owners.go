package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

type OwnerRepository interface {
	// DeleteAllData removes every record, item and store the owner has.
	// Run it inside InTx so a partial purge is never visible.
	DeleteAllData(ctx context.Context, ownerID string) (entity.PurgeResult, error)
}

type ownerRepository struct {
	conn    dialect.ExecQuerier
	dialect string
	logger  *slog.Logger
}

func newOwnerRepository(conn dialect.ExecQuerier, d string, logger *slog.Logger) OwnerRepository {
	return &ownerRepository{conn: conn, dialect: d, logger: logger}
}

func (r *ownerRepository) DeleteAllData(ctx context.Context, ownerID string) (entity.PurgeResult, error) {
	var res entity.PurgeResult
	// records first; they reference both catalogs
	for _, step := range []struct {
		table string
		count *int64
	}{
		{recordsTable, &res.Records},
		{itemsTable, &res.Items},
		{storesTable, &res.Stores},
	} {
		query, args := entsql.Dialect(r.dialect).
			Delete(step.table).
			Where(entsql.EQ("owner_id", ownerID)).
			Query()
		var sr sql.Result
		if err := r.conn.Exec(ctx, query, args, &sr); err != nil {
			r.logger.Error("failed to purge owner data", "table", step.table, "owner_id", ownerID, "error", err)
			return entity.PurgeResult{}, dbError("purge "+step.table, err)
		}
		n, err := sr.RowsAffected()
		if err != nil {
			return entity.PurgeResult{}, dbError("purge "+step.table, err)
		}
		*step.count = n
	}
	r.logger.Info("owner data purged", "owner_id", ownerID,
		"records", res.Records, "items", res.Items, "stores", res.Stores)
	return res, nil
}
