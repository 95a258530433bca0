package constants

import "strings"

// Receipt image content types accepted on upload.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// AllowedExtensions maps receipt image extensions to their content type.
var AllowedExtensions = map[string]string{
	"jpg":  ContentTypeJPEG,
	"jpeg": ContentTypeJPEG,
	"png":  ContentTypePNG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ContentTypeForExt returns the content type for ext, or "" when not a receipt image.
func ContentTypeForExt(ext string) string {
	return AllowedExtensions[NormalizeExt(ext)]
}

// IsAllowedContentType reports whether ct (parameters ignored) is a receipt image type.
func IsAllowedContentType(ct string) bool {
	ct, _, _ = strings.Cut(ct, ";")
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case ContentTypeJPEG, "image/jpg", ContentTypePNG:
		return true
	}
	return false
}

// ExtForContentType returns the canonical file extension for ct.
func ExtForContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case ContentTypePNG:
		return "png"
	default:
		return "jpg"
	}
}
