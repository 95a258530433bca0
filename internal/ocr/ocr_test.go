package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiptText = `
領収書
ｲｵﾝ 西新井店
TEL 03-1234-5678
2026年10月01日(木) 12:34
──────────────
牛乳 (1L)      ¥198
ポテトチップ うす塩   158
卵 10個 248円
小計 ¥604
消費税 ¥48
合計 ¥652
お預り ¥1,000
お釣り ¥348
`

type stubRunner struct {
	mu    sync.Mutex
	out   string
	err   error
	calls [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	if len(args) > 0 && args[len(args)-1] == "tsv" {
		return []byte("level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
			"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
			"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\t牛乳\n" +
			"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t198\n"), nil, nil
	}
	return []byte(s.out), nil, nil
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNormalize(t *testing.T) {
	got := Normalize("  ＡＢＣ　１２３ \r\n\n│ ｲｵﾝ │\f\tmilk   198 ")
	assert.Equal(t, "ABC 123\nイオン\nmilk 198", got)
}

func TestParseText(t *testing.T) {
	lines := ParseText(Normalize(receiptText))
	require.Len(t, lines, 3)

	for _, l := range lines {
		assert.Equal(t, "イオン 西新井店", l.RawStoreName)
		require.NotNil(t, l.RawPurchaseDate)
		assert.Equal(t, "2026年10月01日", *l.RawPurchaseDate)
	}
	assert.Equal(t, "牛乳 (1L)", lines[0].RawItemName)
	assert.Equal(t, "¥198", lines[0].RawPrice)
	assert.Equal(t, "ポテトチップ うす塩", lines[1].RawItemName)
	assert.Equal(t, "158", lines[1].RawPrice)
	assert.Equal(t, "卵 10個", lines[2].RawItemName)
	assert.Equal(t, "248円", lines[2].RawPrice)
}

func TestParseTextWithoutHeaderOrDate(t *testing.T) {
	lines := ParseText("milk ¥198\nbread¥250\n合計 448")
	require.Len(t, lines, 2)
	assert.Equal(t, "", lines[0].RawStoreName)
	assert.Nil(t, lines[0].RawPurchaseDate)
	assert.Equal(t, "bread", lines[1].RawItemName)
	assert.Equal(t, "¥250", lines[1].RawPrice)

	assert.Empty(t, ParseText(""))
	assert.Empty(t, ParseText("ありがとうございました"))
}

func TestHeuristicConfidence(t *testing.T) {
	low := heuristicConfidence("hello")
	high := heuristicConfidence(Normalize(receiptText))
	assert.InDelta(t, 0.2, low, 1e-6)
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1.0))
}

func TestMeanTSVConfidence(t *testing.T) {
	r := &stubRunner{}
	out, _, err := r.Run(context.Background(), "tesseract", "x", "tsv")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, meanTSVConfidence(string(out)), 1e-6)
	assert.Zero(t, meanTSVConfidence("header only"))
}

func TestExtractBytes(t *testing.T) {
	r := &stubRunner{out: receiptText}
	e := NewExtractor(Config{PSM: 6, TessdataDir: "/tessdata", EnableTSVConfidence: true}, quietLogger(), WithRunner(r))

	res, err := e.ExtractBytes(context.Background(), "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "jpn+eng", res.Language)
	assert.Contains(t, res.Text, "イオン 西新井店")
	assert.Greater(t, res.Confidence, float32(0.5))

	require.Equal(t, 2, r.count())
	args := r.calls[0]
	assert.Equal(t, "tesseract", args[0])
	assert.True(t, strings.HasSuffix(args[1], ".png"))
	assert.Equal(t, []string{"stdout", "-l", "jpn+eng", "--psm", "6", "--tessdata-dir", "/tessdata"}, args[2:])
}

func TestExtractBytesRejectsUnsupportedTypes(t *testing.T) {
	r := &stubRunner{}
	e := NewExtractor(Config{}, quietLogger(), WithRunner(r))

	_, err := e.ExtractBytes(context.Background(), "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = e.ExtractBytes(context.Background(), "image/jpeg", nil)
	assert.Error(t, err)
	assert.Zero(t, r.count())
}

func TestExtractBytesPropagatesRunnerFailure(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(Config{}, quietLogger(), WithRunner(r))
	res, err := e.ExtractBytes(context.Background(), "image/jpeg", []byte("jpg"))
	require.Error(t, err)
	assert.Equal(t, []string{"boom"}, res.Warnings)
}

func TestExtractUsesCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(filepath.Join(dir, "ocr.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	img := filepath.Join(dir, "receipt.JPG")
	require.NoError(t, os.WriteFile(img, []byte("jpeg-bytes"), 0o600))

	r := &stubRunner{out: "milk 198"}
	e := NewExtractor(Config{}, quietLogger(), WithRunner(r), WithCache(cache))

	first, err := e.Extract(context.Background(), img)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := e.Extract(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, r.count())
	assert.Equal(t, 1, cache.Len())

	_, err = e.Extract(context.Background(), filepath.Join(dir, "receipt.heic"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestContentKey(t *testing.T) {
	a := ContentKey([]byte("x"), "jpn")
	assert.Equal(t, a, ContentKey([]byte("x"), "jpn"))
	assert.NotEqual(t, a, ContentKey([]byte("x"), "eng"))
	assert.NotEqual(t, a, ContentKey([]byte("y"), "jpn"))
}

func TestDecodeEngineLines(t *testing.T) {
	raw := []byte(`{"lines": [
		{"store": " イオン ", "name": "牛乳", "price": 198, "date": "2026/10/01", "confidence": 0.9},
		{"store_name": "イオン", "item_name": "卵", "price": "248円", "purchase_date": ""}
	]}`)
	lines, err := DecodeEngineLines(raw, quietLogger())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "イオン", lines[0].RawStoreName)
	assert.Equal(t, "牛乳", lines[0].RawItemName)
	assert.Equal(t, "198", lines[0].RawPrice)
	require.NotNil(t, lines[0].RawPurchaseDate)
	assert.Equal(t, "2026/10/01", *lines[0].RawPurchaseDate)

	assert.Equal(t, "248円", lines[1].RawPrice)
	assert.Nil(t, lines[1].RawPurchaseDate)
}

func TestDecodeEngineLinesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"not a list", `{"store_name": "x"}`},
		{"scalar", `"牛乳 198"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEngineLines([]byte(tt.raw), quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestDecodeEngineLinesDefaultsMissingFields(t *testing.T) {
	type want struct{ store, item, price string }
	tests := []struct {
		name string
		raw  string
		want []want
	}{
		{"missing store", `[{"item_name": "牛乳", "price": "198"}]`, []want{{"", "牛乳", "198"}}},
		{"missing item", `[{"store_name": "イオン", "price": 198}]`, []want{{"イオン", "", "198"}}},
		{"missing price", `[{"store_name": "x", "item_name": "y"}]`, []want{{"x", "y", "0"}}},
		{"blank price", `[{"store_name": "x", "item_name": "y", "price": " "}]`, []want{{"x", "y", "0"}}},
		{"null price", `[{"store_name": "x", "item_name": "y", "price": null}]`, []want{{"x", "y", "0"}}},
		{"non string name", `[{"store_name": 1, "item_name": "y", "price": "1"}]`, []want{{"", "y", "1"}}},
		{
			"only second line lacks price",
			`[{"store_name": "イオン", "item_name": "牛乳", "price": "198"},
			  {"store_name": "イオン", "item_name": "卵"}]`,
			[]want{{"イオン", "牛乳", "198"}, {"イオン", "卵", "0"}},
		},
		{
			"non object line is skipped",
			`[7, {"store_name": "x", "item_name": "y", "price": "5"}]`,
			[]want{{"x", "y", "5"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := DecodeEngineLines([]byte(tt.raw), quietLogger())
			require.NoError(t, err)
			require.Len(t, lines, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.store, lines[i].RawStoreName)
				assert.Equal(t, w.item, lines[i].RawItemName)
				assert.Equal(t, w.price, lines[i].RawPrice)
			}
		})
	}
}

func TestDecodeEngineLinesExpandsReceiptItems(t *testing.T) {
	raw := []byte(`{
		"store_name": "スーパーマーケットA",
		"purchase_date": "2023年10月26日",
		"items": [
			{"name": "牛乳", "price": 198, "quantity": 1},
			{"name": "食パン", "price": "150", "quantity": 2},
			{"name": "卵", "store_name": "B店"}
		]
	}`)
	lines, err := DecodeEngineLines(raw, quietLogger())
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "スーパーマーケットA", lines[0].RawStoreName)
	assert.Equal(t, "牛乳", lines[0].RawItemName)
	assert.Equal(t, "198", lines[0].RawPrice)
	require.NotNil(t, lines[0].RawPurchaseDate)
	assert.Equal(t, "2023年10月26日", *lines[0].RawPurchaseDate)

	assert.Equal(t, "食パン", lines[1].RawItemName)
	assert.Equal(t, "150", lines[1].RawPrice)

	assert.Equal(t, "B店", lines[2].RawStoreName, "a line keeps its own store")
	assert.Equal(t, "0", lines[2].RawPrice)
}

func TestSanitizeEngineJSONExpandsReceiptsInsideList(t *testing.T) {
	raw := []byte(`[
		{"store": "イオン", "date": "2026-10-01", "items": [{"item": "牛乳", "price": 198}]},
		{"store_name": "ライフ", "item_name": "卵", "price": "248"}
	]`)
	clean, dropped, err := SanitizeEngineJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"store_name": "イオン", "item_name": "牛乳", "price": "198", "purchase_date": "2026-10-01"},
		{"store_name": "ライフ", "item_name": "卵", "price": "248"}
	]`, string(clean))
	assert.Contains(t, dropped, "[0].items[0].store->store_name")
}

func TestTesseractRunnerReportsMissingBinary(t *testing.T) {
	r := tesseractRunner{logger: quietLogger()}
	_, _, err := r.Run(context.Background(), "tesseract-not-installed-here", "--version")
	assert.ErrorIs(t, err, ErrEngineMissing)
	assert.Contains(t, err.Error(), "TESSERACT_BIN")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 8))
	// each kana is three bytes; a cut at 4 must back off to 3
	assert.Equal(t, "エ...(truncated)", truncate("エラー", 4))
	assert.Equal(t, "ab...(truncated)", truncate("abcdef", 2))
}
