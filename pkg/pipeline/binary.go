// File: pkg/pipeline/binary.go
package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"
)

// sniffLen is how much of a file is inspected by isBinary.
const sniffLen = 512

// BinaryExtensions lists extensions that are treated as binary without
// looking at the content.
var BinaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true, ".bmp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".7z": true, ".rar": true,
	".mp3": true, ".mp4": true, ".wav": true, ".ogg": true, ".webm": true, ".mov": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".wasm": true, ".class": true,
}

// isBinary checks whether content is likely binary by looking for null bytes
// or a high ratio of non-printable characters in its first bytes.
func isBinary(content []byte) bool {
	if len(content) > sniffLen {
		content = content[:sniffLen]
	}
	if len(content) == 0 {
		return false
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range content {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	// More than 30% non-printable bytes.
	return float64(nonPrintable)/float64(len(content)) > 0.3
}

// isPrintable reports whether b is printable ASCII, common whitespace, or
// part of a multi-byte UTF-8 sequence.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}

func isCommonBinaryExtension(path string) bool {
	return BinaryExtensions[strings.ToLower(filepath.Ext(path))]
}
