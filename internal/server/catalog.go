package server

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/emptypb"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/history"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

// CatalogServer serves one owner-scoped catalog: items or stores.
type CatalogServer struct {
	kind    entity.Kind
	repo    repository.CatalogRepository
	catalog *catalog.Service
	logger  *slog.Logger
}

func newCatalogServer(kind entity.Kind, repo repository.CatalogRepository, cat *catalog.Service, logger *slog.Logger) *CatalogServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogServer{kind: kind, repo: repo, catalog: cat, logger: logger}
}

func NewStoresServer(repo repository.CatalogRepository, cat *catalog.Service, logger *slog.Logger) *CatalogServer {
	return newCatalogServer(entity.KindStore, repo, cat, logger)
}

func (s *CatalogServer) Create(ctx context.Context, req *pb.CreateRequest) (*pb.NamedEntity, error) {
	if err := common.NewValidator().
		Field("name", req.Name, common.Required, common.Length(1, 100)).
		Error(); err != nil {
		return nil, err
	}
	owner := common.OwnerIDFromContext(ctx)
	e, err := s.repo.Create(ctx, owner, req.Name)
	if err != nil {
		return nil, err
	}
	common.LoggerFromContext(ctx, s.logger).Info("catalog entry created", "kind", s.kind, "id", e.ID)
	return utils.ToPBEntity(e), nil
}

func (s *CatalogServer) List(ctx context.Context, _ *pb.ListRequest) (*pb.ListResponse, error) {
	es, err := s.repo.List(ctx, common.OwnerIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return &pb.ListResponse{Entries: utils.ToPBEntities(es)}, nil
}

func (s *CatalogServer) Get(ctx context.Context, req *pb.GetRequest) (*pb.NamedEntity, error) {
	if err := common.NewValidator().Field("id", req.ID, common.PositiveID).Error(); err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, common.OwnerIDFromContext(ctx), req.ID)
	if err != nil {
		return nil, err
	}
	return utils.ToPBEntity(e), nil
}

func (s *CatalogServer) Update(ctx context.Context, req *pb.UpdateRequest) (*pb.NamedEntity, error) {
	if err := common.NewValidator().
		Field("id", req.ID, common.PositiveID).
		Field("name", req.Name, common.Required, common.Length(1, 100)).
		Error(); err != nil {
		return nil, err
	}
	e, err := s.repo.Rename(ctx, common.OwnerIDFromContext(ctx), req.ID, req.Name)
	if err != nil {
		return nil, err
	}
	return utils.ToPBEntity(e), nil
}

func (s *CatalogServer) Delete(ctx context.Context, req *pb.DeleteRequest) (*emptypb.Empty, error) {
	if err := common.NewValidator().Field("id", req.ID, common.PositiveID).Error(); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, common.OwnerIDFromContext(ctx), req.ID); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *CatalogServer) Suggest(ctx context.Context, req *pb.SuggestRequest) (*pb.ListResponse, error) {
	owner := common.OwnerIDFromContext(ctx)
	var (
		es  []entity.NamedEntity
		err error
	)
	if s.kind == entity.KindStore {
		es, err = s.catalog.SuggestStores(ctx, owner, req.Query)
	} else {
		es, err = s.catalog.SuggestItems(ctx, owner, req.Query)
	}
	if err != nil {
		return nil, err
	}
	return &pb.ListResponse{Entries: utils.ToPBEntities(es)}, nil
}

// ItemsServer adds purchase history on top of the item catalog.
type ItemsServer struct {
	*CatalogServer
	history *history.Service
}

func NewItemsServer(repo repository.CatalogRepository, cat *catalog.Service, hist *history.Service, logger *slog.Logger) *ItemsServer {
	return &ItemsServer{CatalogServer: newCatalogServer(entity.KindItem, repo, cat, logger), history: hist}
}

func (s *ItemsServer) History(ctx context.Context, req *pb.ItemRequest) (*pb.HistoryResponse, error) {
	recs, err := s.history.ItemHistory(ctx, common.OwnerIDFromContext(ctx), req.ItemID)
	if err != nil {
		return nil, err
	}
	return &pb.HistoryResponse{Records: utils.ToPBRecords(recs)}, nil
}

func (s *ItemsServer) Compare(ctx context.Context, req *pb.ItemRequest) (*pb.CompareResponse, error) {
	cmp, err := s.history.ComparePrices(ctx, common.OwnerIDFromContext(ctx), req.ItemID)
	if err != nil {
		return nil, err
	}
	return &pb.CompareResponse{Comparisons: utils.ToPBComparisons(cmp)}, nil
}
