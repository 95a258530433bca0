package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

// ReceiptsServer exposes upload, single-line normalization and confirmation.
type ReceiptsServer struct {
	svc    *receipts.Service
	logger *slog.Logger
}

func NewReceiptsServer(svc *receipts.Service, logger *slog.Logger) *ReceiptsServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptsServer{svc: svc, logger: logger}
}

func (s *ReceiptsServer) Upload(ctx context.Context, req *pb.UploadRequest) (*pb.UploadResponse, error) {
	if len(req.Image) == 0 {
		return nil, common.InvalidArgumentError("image is required")
	}
	proposals, err := s.svc.Upload(ctx, common.OwnerIDFromContext(ctx), req.ContentType, req.Image)
	if err != nil {
		return nil, err
	}
	return &pb.UploadResponse{Proposals: utils.ToPBProposals(proposals)}, nil
}

func (s *ReceiptsServer) Normalize(ctx context.Context, req *pb.NormalizeRequest) (*pb.Proposal, error) {
	if req.Line == nil {
		return nil, common.InvalidArgumentError("line is required")
	}
	p, err := s.svc.Normalize(ctx, common.OwnerIDFromContext(ctx), utils.ToRawLine(req.Line))
	if err != nil {
		return nil, err
	}
	return utils.ToPBProposal(&p), nil
}

func (s *ReceiptsServer) Confirm(ctx context.Context, req *pb.ConfirmRequest) (*pb.PurchaseRecord, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return nil, common.InvalidArgumentError("price must be a decimal number")
	}
	rec, err := s.svc.Confirm(ctx, receipts.ConfirmRequest{
		OwnerID:      common.OwnerIDFromContext(ctx),
		IsNewItem:    req.IsNewItem,
		ItemID:       req.ItemID,
		ItemName:     strings.TrimSpace(req.ItemName),
		IsNewStore:   req.IsNewStore,
		StoreID:      req.StoreID,
		StoreName:    strings.TrimSpace(req.StoreName),
		Price:        price,
		PurchaseDate: req.PurchaseDate,
	})
	if err != nil {
		return nil, err
	}
	return utils.ToPBRecord(rec), nil
}
