package linecount

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CosmoTheDev/snyklines/internal/snyk"
	"github.com/CosmoTheDev/snyklines/models"
)

// DebugFileName is the per-organization raw listing dump name.
func DebugFileName(org models.Organization) string {
	return fmt.Sprintf("debug_issues_%s_%s.json", org.Slug, short(org.ID))
}

// writeDebugDump saves the listing as {"data": [...]} exactly as received.
func writeDebugDump(dir string, org models.Organization, listing *snyk.IssueListing) (string, error) {
	path := filepath.Join(dir, DebugFileName(org))
	data := listing.Raw
	if data == nil {
		data = []json.RawMessage{}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"data": data}); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
