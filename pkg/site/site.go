// Package site exports saved research sessions as a static report site.
package site

import (
	"time"

	"github.com/cpunion/dexbot/pkg/research"
)

// ManifestFile is the name of the index written at the export root.
const ManifestFile = "manifest.json"

// Manifest lets a static frontend discover exported reports without a server API.
type Manifest struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`

	// Relative paths, anchored at the export root.
	Sessions []Entry `json:"sessions"`

	Stats ManifestStats `json:"stats"`
}

// Entry describes one exported session. Only complete sessions have pages.
type Entry struct {
	ID           string          `json:"id"`
	Prompt       string          `json:"prompt"`
	Status       research.Status `json:"status"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Sources      int             `json:"sources"`
	HTMLPath     string          `json:"html_path,omitempty"`     // e.g. "reports/<id>.html"
	MarkdownPath string          `json:"markdown_path,omitempty"` // e.g. "reports/<id>.md"
	Error        string          `json:"error,omitempty"`
}

type ManifestStats struct {
	Total    int `json:"total"`
	Complete int `json:"complete"`
	Failed   int `json:"failed"`
	Pending  int `json:"pending"`
}
