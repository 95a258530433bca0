package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// BuildLinesJSONSchema returns the JSON Schema (draft 2020-12 subset) an
// OCR engine's line list must satisfy after sanitizing.
func BuildLinesJSONSchema() map[string]any {
	line := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"store_name":    map[string]any{"type": "string"},
			"item_name":     map[string]any{"type": "string"},
			"price":         map[string]any{"type": "string", "minLength": 1},
			"purchase_date": map[string]any{"type": "string", "minLength": 1},
		},
	}
	return map[string]any{
		"type":  "array",
		"items": line,
	}
}

var (
	linesSchemaOnce sync.Once
	linesSchema     *jsonschema.Schema
	linesSchemaErr  error
)

func compiledLinesSchema() (*jsonschema.Schema, error) {
	linesSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildLinesJSONSchema())
		if err != nil {
			linesSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("lines.json", bytes.NewReader(b)); err != nil {
			linesSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		linesSchema, linesSchemaErr = compiler.Compile("lines.json")
	})
	return linesSchema, linesSchemaErr
}

type engineLine struct {
	StoreName    string  `json:"store_name"`
	ItemName     string  `json:"item_name"`
	Price        string  `json:"price"`
	PurchaseDate *string `json:"purchase_date"`
}

// DecodeEngineLines reads the line list an external OCR engine produced.
// The payload may be a bare array or an object with a "lines" array. Each
// line is sanitized before schema validation.
func DecodeEngineLines(raw []byte, logger *slog.Logger) ([]entity.RawReceiptLine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clean, dropped, err := SanitizeEngineJSON(raw)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		logger.Warn("ocr.engine.sanitize", "dropped", dropped)
	}

	schema, err := compiledLinesSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(clean, &v); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}

	var lines []engineLine
	if err := json.Unmarshal(clean, &lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	out := make([]entity.RawReceiptLine, len(lines))
	for i, l := range lines {
		out[i] = entity.RawReceiptLine{
			RawStoreName:    l.StoreName,
			RawItemName:     l.ItemName,
			RawPrice:        l.Price,
			RawPurchaseDate: l.PurchaseDate,
		}
	}
	return out, nil
}

// SanitizeEngineJSON
// - Unwraps {"lines": [...]}
// - Expands receipts shaped {store_name, purchase_date, items: [...]} into
//   lines that inherit the receipt's store and date
// - Renames known synonyms (store -> store_name, name/item -> item_name, date -> purchase_date)
// - Coerces numeric prices to strings; a missing or unusable price becomes "0"
// - Defaults missing names to "" and drops empty dates and unknown keys
func SanitizeEngineJSON(raw []byte) ([]byte, []string, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if obj, ok := top.(map[string]any); ok {
		if lines, ok := obj["lines"]; ok {
			top = lines
		} else if _, ok := obj["items"]; ok {
			top = []any{obj}
		}
	}
	arr, ok := top.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("sanitize: expected an array of lines, got %T", top)
	}

	dropped := make([]string, 0, 4)
	lines := make([]any, 0, len(arr))
	for i, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("[%d](not an object)", i))
			continue
		}
		items, ok := m["items"].([]any)
		if !ok {
			lines = append(lines, sanitizeLine(m, fmt.Sprintf("[%d]", i), &dropped))
			continue
		}
		for j, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("[%d].items[%d](not an object)", i, j))
				continue
			}
			for _, k := range []string{"store_name", "store", "purchase_date", "date"} {
				if v, ok := m[k]; ok {
					if _, set := im[k]; !set {
						im[k] = v
					}
				}
			}
			lines = append(lines, sanitizeLine(im, fmt.Sprintf("[%d].items[%d]", i, j), &dropped))
		}
	}

	out, err := json.Marshal(lines)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

func sanitizeLine(m map[string]any, at string, dropped *[]string) map[string]any {
	note := func(s string) { *dropped = append(*dropped, at+"."+s) }
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			note(from + "->" + to)
		}
	}
	rename("store", "store_name")
	rename("name", "item_name")
	rename("item", "item_name")
	rename("date", "purchase_date")

	switch t := m["price"].(type) {
	case float64:
		m["price"] = strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		if t = strings.TrimSpace(t); t == "" {
			m["price"] = "0"
			note("price(empty)")
		} else {
			m["price"] = t
		}
	default:
		m["price"] = "0"
		note("price(missing)")
	}
	for _, k := range []string{"store_name", "item_name"} {
		if v, ok := m[k].(string); ok {
			m[k] = strings.TrimSpace(v)
			continue
		}
		if _, present := m[k]; present && m[k] != nil {
			note(k + "(not a string)")
		}
		m[k] = ""
	}
	if v, present := m["purchase_date"]; present {
		if s, ok := v.(string); !ok || strings.TrimSpace(s) == "" {
			delete(m, "purchase_date")
			note("purchase_date(empty)")
		} else {
			m["purchase_date"] = strings.TrimSpace(s)
		}
	}

	for k := range maps.Clone(m) {
		switch k {
		case "store_name", "item_name", "price", "purchase_date":
		default:
			delete(m, k)
			note(k + "(unknown)")
		}
	}
	return m
}
