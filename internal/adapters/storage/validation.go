package storage

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSnapshotSize bounds one archived payload.
const MaxSnapshotSize int64 = 10 << 20

// AllowedContentTypes lists what the archive stores.
var AllowedContentTypes = map[string]bool{
	"application/json": true,
}

// ValidateContentType ignores parameters such as charset.
func ValidateContentType(contentType string) error {
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize rejects empty and oversized payloads.
func ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return errors.New("empty snapshot")
	}
	if sizeBytes > MaxSnapshotSize {
		return fmt.Errorf("snapshot of %d bytes exceeds %d", sizeBytes, MaxSnapshotSize)
	}
	return nil
}
