package site

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/report"
	"github.com/cpunion/dexbot/pkg/research"
)

const reportsDir = "reports"

// Export writes every saved session to dir: a page pair per complete
// session, plus the manifest and an index page. Sessions that fail to
// load are logged and skipped.
func Export(store research.SessionStore, dir string, logger *zap.Logger) (Manifest, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ids, err := store.List()
	if err != nil {
		return Manifest{}, fmt.Errorf("list sessions: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, reportsDir), 0755); err != nil {
		return Manifest{}, err
	}

	m := Manifest{Version: 1, GeneratedAt: time.Now().UTC(), Sessions: []Entry{}}
	for _, id := range ids {
		s, err := store.Load(id)
		if err != nil {
			logger.Warn("skip session", zap.String("session", id), zap.Error(err))
			continue
		}
		e, err := writeSession(dir, s)
		if err != nil {
			return Manifest{}, err
		}
		m.Sessions = append(m.Sessions, e)
		m.Stats.Total++
		switch s.Status {
		case research.StatusComplete:
			m.Stats.Complete++
		case research.StatusFailed:
			m.Stats.Failed++
		default:
			m.Stats.Pending++
		}
	}

	// Newest first.
	sort.SliceStable(m.Sessions, func(i, j int) bool {
		return m.Sessions[i].UpdatedAt.After(m.Sessions[j].UpdatedAt)
	})

	if err := WriteManifest(filepath.Join(dir, ManifestFile), m); err != nil {
		return Manifest{}, err
	}
	if err := writeIndex(filepath.Join(dir, "index.html"), m); err != nil {
		return Manifest{}, err
	}
	logger.Info("site exported", zap.String("dir", dir),
		zap.Int("sessions", m.Stats.Total), zap.Int("complete", m.Stats.Complete))
	return m, nil
}

func writeSession(dir string, s *research.State) (Entry, error) {
	e := Entry{
		ID:        s.ID,
		Prompt:    s.Prompt,
		Status:    s.Status,
		UpdatedAt: s.UpdatedAt,
		Sources:   len(s.Citations),
		Error:     s.Error,
	}
	if s.Status != research.StatusComplete {
		return e, nil
	}

	page, err := report.HTML(s)
	if err != nil {
		return e, err
	}
	e.HTMLPath = filepath.ToSlash(filepath.Join(reportsDir, s.ID+".html"))
	if err := os.WriteFile(filepath.Join(dir, e.HTMLPath), page, 0644); err != nil {
		return e, err
	}
	e.MarkdownPath = filepath.ToSlash(filepath.Join(reportsDir, s.ID+".md"))
	if err := os.WriteFile(filepath.Join(dir, e.MarkdownPath), []byte(report.Markdown(s)), 0644); err != nil {
		return e, err
	}
	return e, nil
}

func WriteManifest(path string, manifest Manifest) error {
	if manifest.Version <= 0 {
		manifest.Version = 1
	}
	if manifest.GeneratedAt.IsZero() {
		manifest.GeneratedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var index = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>dexbot reports</title>
</head>
<body>
<h1>Research reports</h1>
<ul>
{{- range .Sessions}}
{{- if .HTMLPath}}
<li><a href="{{.HTMLPath}}">{{.Prompt}}</a> <small>{{.UpdatedAt.Format "2006-01-02 15:04"}}, {{.Sources}} sources</small></li>
{{- else}}
<li>{{.Prompt}} <small>{{.Status}}</small></li>
{{- end}}
{{- end}}
</ul>
</body>
</html>
`))

func writeIndex(path string, m Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := index.Execute(f, m); err != nil {
		f.Close()
		return fmt.Errorf("render index: %w", err)
	}
	return f.Close()
}
