package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/export"
	"github.com/joseph-ayodele/groceries-db/internal/history"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

// Deps is everything the gRPC services need.
type Deps struct {
	DB       receipts.TxRunner
	Repos    repository.Repos
	Catalog  *catalog.Service
	Receipts *receipts.Service
	History  *history.Service
	Export   *export.Service
}

// New builds a gRPC server with every groceries service and the standard
// health service registered. The returned health server starts SERVING.
func New(deps Deps, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryInterceptor(logger)))
	s := grpc.NewServer(opts...)

	pb.RegisterItemsServer(s, NewItemsServer(deps.Repos.Items, deps.Catalog, deps.History, logger))
	pb.RegisterStoresServer(s, NewStoresServer(deps.Repos.Stores, deps.Catalog, logger))
	pb.RegisterReceiptsServer(s, NewReceiptsServer(deps.Receipts, logger))
	pb.RegisterExportServer(s, NewExportServer(deps.Export, logger))
	pb.RegisterOwnersServer(s, NewOwnersServer(deps.DB, logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	for _, name := range []string{"", pb.ItemsServiceName, pb.StoresServiceName, pb.ReceiptsServiceName, pb.ExportServiceName, pb.OwnersServiceName} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	reflection.Register(s)
	return s, hs
}
