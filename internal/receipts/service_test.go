package receipts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/groceries-db/constants"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

const owner = "7d9f5a2e-4c1b-4e8a-9b3d-2f6e8a1c0b4d"

type fakeExtractor struct {
	res   extract.LinesResult
	err   error
	calls int
}

func (f *fakeExtractor) ExtractLines(context.Context, string, []byte) (extract.LinesResult, error) {
	f.calls++
	return f.res, f.err
}

type failingSource struct{}

func (failingSource) FetchItems(context.Context, string) ([]entity.NamedEntity, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) FetchStores(context.Context, string) ([]entity.NamedEntity, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	db   *repository.DB
	ext  *fakeExtractor
	svc  *Service
	milk *entity.NamedEntity
	aeon *entity.NamedEntity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "receipts.db"), logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	repos := db.Repos()
	milk, err := repos.Items.Create(ctx, owner, "牛乳 (1L)")
	require.NoError(t, err)
	aeon, err := repos.Stores.Create(ctx, owner, "イオンモール")
	require.NoError(t, err)

	ext := &fakeExtractor{}
	cat := catalog.NewService(repository.CatalogSource{Items: repos.Items, Stores: repos.Stores}, nil, logger)
	return &fixture{db: db, ext: ext, svc: NewService(ext, cat, db, logger), milk: milk, aeon: aeon}
}

func strPtr(s string) *string { return &s }

func TestUpload(t *testing.T) {
	f := newFixture(t)
	f.ext.res = extract.LinesResult{
		Method: "image-ocr",
		Lines: []entity.RawReceiptLine{
			{RawStoreName: "イオンモール（仮）", RawItemName: "牛乳", RawPrice: "¥198", RawPurchaseDate: strPtr("2026年10月01日")},
			{RawStoreName: "", RawItemName: "  ", RawPrice: "100"},
		},
	}

	proposals, err := f.svc.Upload(context.Background(), owner, "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.Len(t, proposals, 2)

	p := proposals[0]
	assert.False(t, p.IsNewItem)
	require.NotNil(t, p.SuggestedItemID)
	assert.Equal(t, f.milk.ID, *p.SuggestedItemID)
	assert.False(t, p.IsNewStore)
	assert.Equal(t, f.aeon.ID, *p.SuggestedStoreID)
	assert.True(t, decimal.NewFromInt(198).Equal(p.Price))

	assert.Equal(t, constants.UnknownStoreName, proposals[1].RawStoreName)
	assert.Equal(t, constants.UnknownItemName, proposals[1].RawItemName)
	assert.True(t, proposals[1].IsNewItem)
}

func TestUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), owner, "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.svc.Upload(context.Background(), owner, "image/png", nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Zero(t, f.ext.calls)
}

func TestUploadWithoutLines(t *testing.T) {
	f := newFixture(t)
	f.ext.res = extract.LinesResult{Text: "ありがとうございました"}
	_, err := f.svc.Upload(context.Background(), owner, "image/png", []byte("png"))
	assert.ErrorIs(t, err, ErrNoLines)
}

func TestUploadCatalogUnavailable(t *testing.T) {
	ext := &fakeExtractor{res: extract.LinesResult{Lines: []entity.RawReceiptLine{{RawItemName: "牛乳", RawPrice: "198"}}}}
	svc := NewService(ext, catalog.NewService(failingSource{}, nil, nil), nil, nil)
	_, err := svc.Upload(context.Background(), owner, "image/jpeg", []byte("jpeg"))
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestNormalize(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Normalize(context.Background(), owner, entity.RawReceiptLine{
		RawStoreName: "個人商店田中", RawItemName: "超高級キャビア", RawPrice: "10000円",
	})
	require.NoError(t, err)
	assert.True(t, p.IsNewItem)
	assert.True(t, p.IsNewStore)
	assert.Equal(t, "超高級キャビア", *p.SuggestedItemName)
}

func TestConfirmExistingEntries(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Confirm(context.Background(), ConfirmRequest{
		OwnerID: owner, ItemID: f.milk.ID, StoreID: f.aeon.ID,
		Price: decimal.RequireFromString("198"), PurchaseDate: "2026-10-01",
	})
	require.NoError(t, err)
	assert.Positive(t, rec.ID)
	assert.Equal(t, "牛乳 (1L)", rec.ItemName)
	assert.Equal(t, "イオンモール", rec.StoreName)
	assert.Equal(t, "2026-10-01", rec.PurchaseDate.Format("2006-01-02"))
}

func TestConfirmCreatesNewEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Confirm(ctx, ConfirmRequest{
		OwnerID: owner, IsNewItem: true, ItemName: "超高級キャビア",
		IsNewStore: true, StoreName: "個人商店田中",
		Price: decimal.NewFromInt(10000), PurchaseDate: "2026-10-02",
	})
	require.NoError(t, err)

	items, err := f.db.Repos().Items.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, rec.ItemID, items[1].ID)

	stores, err := f.db.Repos().Stores.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, stores, 2)
}

func TestConfirmIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Confirm(ctx, ConfirmRequest{
		OwnerID: owner, IsNewItem: true, ItemName: "新商品",
		StoreID: 9999,
		Price:   decimal.NewFromInt(100), PurchaseDate: "2026-10-02",
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	items, err := f.db.Repos().Items.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestConfirmValidation(t *testing.T) {
	f := newFixture(t)
	base := ConfirmRequest{
		OwnerID: owner, ItemID: f.milk.ID, StoreID: f.aeon.ID,
		Price: decimal.NewFromInt(198), PurchaseDate: "2026-10-01",
	}
	tests := []struct {
		name   string
		mutate func(*ConfirmRequest)
	}{
		{"zero price", func(r *ConfirmRequest) { r.Price = decimal.Zero }},
		{"negative price", func(r *ConfirmRequest) { r.Price = decimal.NewFromInt(-1) }},
		{"bad date", func(r *ConfirmRequest) { r.PurchaseDate = "2026/10/01" }},
		{"missing item", func(r *ConfirmRequest) { r.ItemID = 0 }},
		{"blank new store", func(r *ConfirmRequest) { r.IsNewStore, r.StoreName = true, " " }},
		{"bad owner", func(r *ConfirmRequest) { r.OwnerID = "nobody" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.svc.Confirm(context.Background(), req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}
