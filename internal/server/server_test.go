package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/export"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/history"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

const (
	owner = "7d9f5a2e-4c1b-4e8a-9b3d-2f6e8a1c0b4d"
	other = "0b8c2d4e-6f70-4a1b-8c9d-0e1f2a3b4c5d"
)

type fakeExtractor struct {
	res extract.LinesResult
}

func (f *fakeExtractor) ExtractLines(context.Context, string, []byte) (extract.LinesResult, error) {
	return f.res, nil
}

type failingSource struct{}

func (failingSource) FetchItems(context.Context, string) ([]entity.NamedEntity, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) FetchStores(context.Context, string) ([]entity.NamedEntity, error) {
	return nil, errors.New("connection refused")
}

type harness struct {
	conn *grpc.ClientConn
	ext  *fakeExtractor
	db   *repository.DB
}

func newHarness(t *testing.T, source catalog.Source) *harness {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "server.db"), logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	repos := db.Repos()
	if source == nil {
		source = repository.CatalogSource{Items: repos.Items, Stores: repos.Stores}
	}
	ext := &fakeExtractor{}
	cat := catalog.NewService(source, nil, logger)
	srv, _ := New(Deps{
		DB:       db,
		Repos:    repos,
		Catalog:  cat,
		Receipts: receipts.NewService(ext, cat, db, logger),
		History:  history.NewService(repos.Items, repos.Records, logger),
		Export:   export.NewService(repos.Records, logger),
	}, logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &harness{conn: conn, ext: ext, db: db}
}

func asOwner(id string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), MetadataOwnerID, id)
}

func TestOwnerMetadataIsRequired(t *testing.T) {
	h := newHarness(t, nil)
	items := pb.NewItemsClient(h.conn)

	_, err := items.List(context.Background(), &pb.ListRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = items.List(asOwner("not-a-uuid"), &pb.ListRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthNeedsNoOwner(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t, nil)
	ctx := metadata.AppendToOutgoingContext(asOwner(owner), MetadataRequestID, "req-42")
	var header metadata.MD
	_, err := pb.NewItemsClient(h.conn).List(ctx, &pb.ListRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(MetadataRequestID))
}

func TestCatalogCRUD(t *testing.T) {
	h := newHarness(t, nil)
	ctx := asOwner(owner)
	stores := pb.NewStoresClient(h.conn)

	created, err := stores.Create(ctx, &pb.CreateRequest{Name: " イオンモール "})
	require.NoError(t, err)
	assert.Equal(t, "イオンモール", created.Name)

	got, err := stores.Get(ctx, &pb.GetRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	renamed, err := stores.Update(ctx, &pb.UpdateRequest{ID: created.ID, Name: "イオン 西新井店"})
	require.NoError(t, err)
	assert.Equal(t, "イオン 西新井店", renamed.Name)

	_, err = stores.Create(ctx, &pb.CreateRequest{Name: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// Another owner sees nothing.
	list, err := stores.List(asOwner(other), &pb.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
	_, err = stores.Get(asOwner(other), &pb.GetRequest{ID: created.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = stores.Delete(ctx, &pb.DeleteRequest{ID: created.ID})
	require.NoError(t, err)
	_, err = stores.Get(ctx, &pb.GetRequest{ID: created.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSuggest(t *testing.T) {
	h := newHarness(t, nil)
	ctx := asOwner(owner)
	items := pb.NewItemsClient(h.conn)
	for _, name := range []string{"牛乳 (1L)", "超高級キャビア"} {
		_, err := items.Create(ctx, &pb.CreateRequest{Name: name})
		require.NoError(t, err)
	}

	resp, err := items.Suggest(ctx, &pb.SuggestRequest{Query: "牛乳"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "牛乳 (1L)", resp.Entries[0].Name)
	assert.Equal(t, "超高級キャビア", resp.Entries[1].Name)
}

func TestReceiptFlow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := asOwner(owner)
	items := pb.NewItemsClient(h.conn)
	stores := pb.NewStoresClient(h.conn)
	rc := pb.NewReceiptsClient(h.conn)

	milk, err := items.Create(ctx, &pb.CreateRequest{Name: "牛乳 (1L)"})
	require.NoError(t, err)
	aeon, err := stores.Create(ctx, &pb.CreateRequest{Name: "イオンモール"})
	require.NoError(t, err)

	date := "2026年10月01日"
	h.ext.res = extract.LinesResult{Lines: []entity.RawReceiptLine{
		{RawStoreName: "イオンモール（仮）", RawItemName: "牛乳", RawPrice: "¥198", RawPurchaseDate: &date},
	}}
	up, err := rc.Upload(ctx, &pb.UploadRequest{ContentType: "image/jpeg", Image: []byte("jpeg")})
	require.NoError(t, err)
	require.Len(t, up.Proposals, 1)
	p := up.Proposals[0]
	assert.Equal(t, "牛乳", p.RawLine.ItemName)
	assert.Equal(t, "198", p.Price)
	assert.Equal(t, "2026-10-01", p.PurchaseDate)
	assert.False(t, p.IsNewItem)
	require.NotNil(t, p.SuggestedItemID)
	assert.Equal(t, milk.ID, *p.SuggestedItemID)
	assert.False(t, p.IsNewStore)
	require.NotNil(t, p.SuggestedStoreID)
	assert.Equal(t, aeon.ID, *p.SuggestedStoreID)

	rec, err := rc.Confirm(ctx, &pb.ConfirmRequest{
		ItemID: *p.SuggestedItemID, StoreID: *p.SuggestedStoreID,
		Price: p.Price, PurchaseDate: p.PurchaseDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "198.00", rec.Price)
	assert.Equal(t, "牛乳 (1L)", rec.ItemName)

	_, err = rc.Confirm(ctx, &pb.ConfirmRequest{
		ItemID: milk.ID, IsNewStore: true, StoreName: "ライフ",
		Price: "201.5", PurchaseDate: "2026-10-03",
	})
	require.NoError(t, err)

	hist, err := items.History(ctx, &pb.ItemRequest{ItemID: milk.ID})
	require.NoError(t, err)
	require.Len(t, hist.Records, 2)
	assert.Equal(t, "2026-10-03", hist.Records[0].PurchaseDate)

	cmp, err := items.Compare(ctx, &pb.ItemRequest{ItemID: milk.ID})
	require.NoError(t, err)
	require.Len(t, cmp.Comparisons, 2)
	assert.Equal(t, "イオンモール", cmp.Comparisons[0].StoreName)

	// The item is now referenced and cannot be deleted.
	_, err = items.Delete(ctx, &pb.DeleteRequest{ID: milk.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	out, err := pb.NewExportClient(h.conn).ExportRecords(ctx, &pb.ExportRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "purchase_history_"+owner+".csv", out.Filename)
	rows := strings.Split(strings.TrimSpace(string(out.Data)), "\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "date,store_name,item_name,price", rows[0])
	assert.Equal(t, "2026-10-01,イオンモール,牛乳 (1L),198", rows[1])

	purged, err := pb.NewOwnersClient(h.conn).DeleteAllData(ctx, &pb.DeleteAllDataRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged.Records)
	assert.Equal(t, int64(1), purged.Items)
	assert.Equal(t, int64(2), purged.Stores)
}

func TestReceiptErrors(t *testing.T) {
	h := newHarness(t, nil)
	ctx := asOwner(owner)
	rc := pb.NewReceiptsClient(h.conn)

	_, err := rc.Upload(ctx, &pb.UploadRequest{ContentType: "application/pdf", Image: []byte("%PDF")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	h.ext.res = extract.LinesResult{Text: "ありがとうございました"}
	_, err = rc.Upload(ctx, &pb.UploadRequest{ContentType: "image/png", Image: []byte("png")})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = rc.Confirm(ctx, &pb.ConfirmRequest{ItemID: 1, StoreID: 1, Price: "abc", PurchaseDate: "2026-10-01"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = rc.Confirm(ctx, &pb.ConfirmRequest{ItemID: 1, StoreID: 1, Price: "0", PurchaseDate: "2026-10-01"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = rc.Normalize(ctx, &pb.NormalizeRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = pb.NewExportClient(h.conn).ExportRecords(ctx, &pb.ExportRequest{Format: "pdf"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = pb.NewExportClient(h.conn).ExportRecords(ctx, &pb.ExportRequest{FromDate: "2026/10/01"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCatalogUnavailable(t *testing.T) {
	h := newHarness(t, failingSource{})
	ctx := asOwner(owner)

	_, err := pb.NewReceiptsClient(h.conn).Normalize(ctx, &pb.NormalizeRequest{Line: &pb.RawLine{ItemName: "牛乳", Price: "198"}})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = pb.NewStoresClient(h.conn).Suggest(ctx, &pb.SuggestRequest{Query: "イオン"})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{errors.Join(catalog.ErrCatalogUnavailable, errors.New("connection refused")), codes.Unavailable},
		{receipts.ErrNoLines, codes.FailedPrecondition},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.Join(common.ErrConflict, errors.New("in use")), codes.FailedPrecondition},
		{status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
	assert.NoError(t, toStatus(nil))
}
