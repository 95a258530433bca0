package server

import (
	"context"
	"log/slog"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

// OwnersServer handles account-wide operations.
type OwnersServer struct {
	db     receipts.TxRunner
	logger *slog.Logger
}

func NewOwnersServer(db receipts.TxRunner, logger *slog.Logger) *OwnersServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnersServer{db: db, logger: logger}
}

// DeleteAllData removes every record, item and store of the calling owner.
func (s *OwnersServer) DeleteAllData(ctx context.Context, _ *pb.DeleteAllDataRequest) (*pb.DeleteAllDataResponse, error) {
	owner := common.OwnerIDFromContext(ctx)
	var res entity.PurgeResult
	err := s.db.InTx(ctx, func(r repository.Repos) error {
		var err error
		res, err = r.Owners.DeleteAllData(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	common.LoggerFromContext(ctx, s.logger).Warn("owner data deleted",
		"records", res.Records, "items", res.Items, "stores", res.Stores)
	return &pb.DeleteAllDataResponse{Records: res.Records, Items: res.Items, Stores: res.Stores}, nil
}
