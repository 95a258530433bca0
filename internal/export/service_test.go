package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

const owner = "7d9f5a2e-4c1b-4e8a-9b3d-2f6e8a1c0b4d"

type fakeRecords struct {
	repository.RecordRepository
	recs   []entity.PurchaseRecord
	err    error
	filter repository.RecordFilter
}

func (f *fakeRecords) List(_ context.Context, _ string, filter repository.RecordFilter) ([]entity.PurchaseRecord, error) {
	f.filter = filter
	return f.recs, f.err
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func sample() []entity.PurchaseRecord {
	return []entity.PurchaseRecord{
		{ItemName: "牛乳", StoreName: "Aスーパー", Price: decimal.RequireFromString("200"), PurchaseDate: day("2023-10-01")},
		{ItemName: "卵, 10個", StoreName: "ライフ", Price: decimal.RequireFromString("248.50"), PurchaseDate: day("2023-10-02")},
	}
}

func TestRecordsCSV(t *testing.T) {
	got, err := RecordsCSV(sample()[:1])
	require.NoError(t, err)
	assert.Equal(t, "date,store_name,item_name,price\n2023-10-01,Aスーパー,牛乳,200\n", string(got))

	got, err = RecordsCSV(sample()[1:])
	require.NoError(t, err)
	assert.Contains(t, string(got), `2023-10-02,ライフ,"卵, 10個",248.5`)

	got, err = RecordsCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "date,store_name,item_name,price\n", string(got))
}

func TestRecordsXLSX(t *testing.T) {
	data, err := RecordsXLSX(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Purchases")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2023-10-01", "Aスーパー", "牛乳", "200"}, rows[1])
	assert.Equal(t, "248.5", rows[2][3])
}

func TestExport(t *testing.T) {
	repo := &fakeRecords{recs: sample()}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC) }

	res, err := svc.Export(context.Background(), owner, "CSV", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeCSV, res.ContentType)
	assert.Equal(t, "purchase_history_"+owner+".csv", res.Filename)
	assert.Equal(t, 2, res.Rows)
	assert.True(t, repo.filter.From.IsZero())
	assert.True(t, repo.filter.To.IsZero())

	from := day("2026-10-01")
	res, err = svc.Export(context.Background(), owner, "xlsx", &from, nil)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeXLSX, res.ContentType)
	assert.Equal(t, from, repo.filter.From)
	assert.Equal(t, day("2026-10-16"), repo.filter.To)

	to := day("2026-09-01")
	_, err = svc.Export(context.Background(), owner, "csv", &from, &to)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Export(context.Background(), owner, "pdf", nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	repo.err = errors.New("db down")
	_, err = svc.Export(context.Background(), owner, "", nil, nil)
	assert.Error(t, err)
}
