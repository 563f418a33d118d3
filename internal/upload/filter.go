package upload

import (
	"path/filepath"
	"strings"
)

// The selection surface's advisory allow-list: images, documents, archives,
// audio, video, and text. Nothing here blocks an upload; the server is the
// authority on acceptable content.
var allowedExtensions = map[string]string{
	// Images
	".png": "image", ".jpg": "image", ".jpeg": "image", ".gif": "image",
	".svg": "image", ".bmp": "image", ".webp": "image",
	// Documents
	".pdf": "document", ".doc": "document", ".docx": "document",
	// Text
	".txt": "text", ".csv": "text", ".json": "text", ".xml": "text",
	// Archives
	".zip": "archive", ".rar": "archive", ".7z": "archive",
	// Video
	".mp4": "video", ".avi": "video", ".mov": "video", ".wmv": "video",
	// Audio
	".mp3": "audio", ".wav": "audio", ".ogg": "audio", ".flac": "audio",
}

// Classify returns the advisory category for a filename and whether the
// extension is on the allow-list.
func Classify(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	category, ok := allowedExtensions[ext]
	return category, ok
}

// Advisory returns the names from tasks whose extension is not on the
// allow-list, for a caller-side warning before upload.
func Advisory(tasks []Task) []string {
	var unrecognized []string
	for _, task := range tasks {
		if _, ok := Classify(task.DisplayName); !ok {
			unrecognized = append(unrecognized, task.DisplayName)
		}
	}
	return unrecognized
}
