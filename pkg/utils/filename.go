package utils

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// ExportFilename joins the non-empty parts into a lowercase, hyphenated name
// safe for a Content-Disposition header, then adds ext.
func ExportFilename(ext string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(part), "-"), "-")
		if part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, "export")
	}
	return strings.Join(kept, "-") + "." + strings.TrimPrefix(ext, ".")
}
