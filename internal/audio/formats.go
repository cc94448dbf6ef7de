package audio

import (
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// Extension returns the lower-cased extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// SupportedExtension reports whether the file name has one of the accepted audio extensions.
func SupportedExtension(name string) bool {
	_, ok := mimeTypes[Extension(name)]
	return ok
}

// MIMEType returns the MIME type sent to the model for an extension.
// Unknown extensions map to application/octet-stream.
func MIMEType(ext string) string {
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
