package server

import (
	"context"
	"log/slog"
	"strings"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/export"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

// ExportServer renders an owner's purchase history as CSV or XLSX.
type ExportServer struct {
	svc    *export.Service
	logger *slog.Logger
}

func NewExportServer(svc *export.Service, logger *slog.Logger) *ExportServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportServer{svc: svc, logger: logger}
}

func (s *ExportServer) ExportRecords(ctx context.Context, req *pb.ExportRequest) (*pb.ExportResponse, error) {
	from, err := utils.ParseOptionalYMD(req.FromDate)
	if err != nil {
		return nil, common.InvalidArgumentError("from_date must be YYYY-MM-DD")
	}
	to, err := utils.ParseOptionalYMD(req.ToDate)
	if err != nil {
		return nil, common.InvalidArgumentError("to_date must be YYYY-MM-DD")
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = export.FormatCSV
	}

	res, err := s.svc.Export(ctx, common.OwnerIDFromContext(ctx), format, from, to)
	if err != nil {
		return nil, err
	}
	return &pb.ExportResponse{ContentType: res.ContentType, Filename: res.Filename, Data: res.Data}, nil
}
