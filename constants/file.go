package constants

import "strings"

// PDFContentType is the only MIME type accepted at intake and the content
// type declared on archived objects.
const PDFContentType = "application/pdf"

// DefaultCacheControl is applied to archived objects (seconds).
const DefaultCacheControl = "3600"

// AllowedExtensions holds the file extensions accepted for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt checks a (possibly dotted, mixed-case) extension against
// AllowedExtensions.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
