package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
)

// Encode serializes a document as indented JSON.
func Encode(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return data, nil
}

// Decode parses stored content. Empty or malformed content falls back to the
// default document; source names the store in the warning. The fallback
// keeps any readable revision so the next save still matches the file.
func Decode(data []byte, source string) *models.Document {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewDocument()
	}

	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		logger.Warn("Stored document is unreadable, starting from defaults", "source", source, "error", err)
		fallback := models.NewDocument()
		fallback.Revision = headerRevision(data)
		return fallback
	}
	doc.Normalize()
	return doc
}

// headerRevision reads only the revision field, 0 when even that is unreadable.
func headerRevision(data []byte) int {
	var header struct {
		Revision int `json:"revision"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return 0
	}
	return header.Revision
}
