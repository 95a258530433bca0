package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/llm"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
)

type fakeImage struct {
	text string
	err  error
	got  string
}

func (f *fakeImage) ExtractBytes(_ context.Context, ct string, _ []byte) (ocr.ExtractionResult, error) {
	f.got = ct
	if f.err != nil {
		return ocr.ExtractionResult{Warnings: []string{"stderr"}}, f.err
	}
	return ocr.ExtractionResult{Text: f.text, Method: "image-ocr", Confidence: 0.8}, nil
}

func TestOCRAdapterParsesLines(t *testing.T) {
	img := &fakeImage{text: "ライフ\n2026/10/02\n牛乳 215"}
	res, err := NewOCRAdapter(img, nil).ExtractLines(context.Background(), "image/jpeg", []byte("x"))
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "ライフ", res.Lines[0].RawStoreName)
	assert.Equal(t, "牛乳", res.Lines[0].RawItemName)
	assert.Equal(t, "215", res.Lines[0].RawPrice)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "image/jpeg", img.got)
}

func TestOCRAdapterError(t *testing.T) {
	img := &fakeImage{err: errors.New("tesseract: exit 1")}
	res, err := NewOCRAdapter(img, nil).ExtractLines(context.Background(), "image/png", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, []string{"stderr"}, res.Warnings)
}

func TestRouter(t *testing.T) {
	img := &fakeImage{text: "milk 198"}
	r := Router{Image: NewOCRAdapter(img, nil), Engine: NewEngineAdapter(nil)}

	res, err := r.ExtractLines(context.Background(), "application/json; charset=utf-8",
		[]byte(`[{"store_name":"イオン","item_name":"卵","price":248}]`))
	require.NoError(t, err)
	assert.Equal(t, "engine-json", res.Method)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "248", res.Lines[0].RawPrice)
	assert.Empty(t, img.got)

	res, err = r.ExtractLines(context.Background(), "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "image/png", img.got)
}

type fakeParser struct {
	lines []entity.RawReceiptLine
	err   error
	req   llm.ParseRequest
	calls int
}

func (f *fakeParser) ParseLines(_ context.Context, req llm.ParseRequest) ([]entity.RawReceiptLine, error) {
	f.calls++
	f.req = req
	return f.lines, f.err
}

func TestOCRAdapterFallback(t *testing.T) {
	img := &fakeImage{text: "ｺﾞｳｹｲ\n読めない行"}
	p := &fakeParser{lines: []entity.RawReceiptLine{{RawStoreName: "ライフ", RawItemName: "牛乳", RawPrice: "215"}}}
	a := NewOCRAdapter(img, nil).WithFallback(p)

	res, err := a.ExtractLines(context.Background(), "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, MethodFallback, res.Method)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "image/png", p.req.ContentType)
	assert.Equal(t, []byte("png"), p.req.Image)
	assert.InDelta(t, 0.8, p.req.Confidence, 1e-6)

	p.err = errors.New("rate limited")
	res, err = a.ExtractLines(context.Background(), "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Contains(t, res.Warnings[0], "rate limited")
}

func TestOCRAdapterSkipsFallbackWhenLinesFound(t *testing.T) {
	p := &fakeParser{}
	a := NewOCRAdapter(&fakeImage{text: "牛乳 215"}, nil).WithFallback(p)
	_, err := a.ExtractLines(context.Background(), "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Zero(t, p.calls)
}
