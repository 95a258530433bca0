package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/groceries-db/constants"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
)

const (
	// LinesSuffix marks OCR engine output dropped into the inbox.
	LinesSuffix = ".lines.json"
	// ProposalsSuffix marks the sidecar written for each processed file.
	ProposalsSuffix = ".proposals.json"
)

// ContentTypeFor returns the extractor content type for an inbox file, or ""
// when the file is not something the inbox processes.
func ContentTypeFor(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ProposalsSuffix):
		return ""
	case strings.HasSuffix(base, LinesSuffix):
		return extract.ContentTypeEngineJSON
	}
	return constants.ContentTypeForExt(filepath.Ext(base))
}

// Allowed reports whether path should be picked up by the inbox.
func Allowed(path string) bool {
	return !IsHidden(path) && ContentTypeFor(path) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// SidecarPath is where the proposals for path are written.
func SidecarPath(path string) string {
	dir, base := filepath.Split(path)
	lower := strings.ToLower(base)
	if strings.HasSuffix(lower, LinesSuffix) {
		base = base[:len(base)-len(LinesSuffix)]
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(dir, base+ProposalsSuffix)
}
