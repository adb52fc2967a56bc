package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/dex/dextest"
)

func writeRoster(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(dextest.Profiles())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"DEXBOT_ROSTER", "DEXBOT_SQLITE", "DEXBOT_DATA", "DEXBOT_LOG_LEVEL", "DEXBOT_MAX_TURNS"} {
		t.Setenv(k, "")
	}
	var out bytes.Buffer
	root := (&app{}).rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	roster := writeRoster(t)
	out, err := run(t, "--roster", roster, "search", "--required-immunity", "ground", "--required-resist", "grass,bug")
	require.NoError(t, err)
	assert.Contains(t, out, "charizard")
	assert.Contains(t, out, "skarmory")
	assert.NotContains(t, out, "gyarados")

	_, err = run(t, "--roster", roster, "search", "--include-type", "shadow")
	assert.Error(t, err)
}

func TestSearchUsesConfiguredLimit(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "dexbot.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("search:\n  default_limit: 2\n"), 0644))

	out, err := run(t, "--config", cfg, "--roster", writeRoster(t), "search")
	require.NoError(t, err)
	assert.Contains(t, out, "bulbasaur")
	assert.Contains(t, out, "charizard")
	assert.NotContains(t, out, "pikachu")
}

func TestLookupAndTeamCommands(t *testing.T) {
	roster := writeRoster(t)

	out, err := run(t, "--roster", roster, "lookup", "gyarados", "--groups", "battle")
	require.NoError(t, err)
	var entries map[string]dex.LookupEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotNil(t, entries["gyarados"].Battle)

	out, err = run(t, "--roster", roster, "lookup", "bulbasaur", "-g", "evolution")
	require.NoError(t, err)
	entries = nil
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotNil(t, entries["bulbasaur"].Evolution)
	assert.Equal(t, []string{"bulbasaur", "ivysaur", "venusaur"}, entries["bulbasaur"].Evolution.Line)

	_, err = run(t, "--roster", roster, "lookup", "gyarados", "--groups", "stats")
	assert.Error(t, err)

	out, err = run(t, "--roster", roster, "team", "charizard", "gyarados")
	require.NoError(t, err)
	assert.Contains(t, out, `"shared_weaknesses"`)
}

func TestImportThenUseSQLite(t *testing.T) {
	roster := writeRoster(t)
	db := filepath.Join(t.TempDir(), "roster.db")

	out, err := run(t, "import", "--from", roster, "--to", db)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 13 creatures")

	out, err = run(t, "--sqlite", db, "search", "--legendary", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"mewtwo"`)
	assert.NotContains(t, out, `"mew"`)
}

func TestResearchRequiresAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := run(t, "--roster", writeRoster(t), "research", "is gyarados bulky?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestExportCommand(t *testing.T) {
	data := t.TempDir()
	t.Setenv("DEXBOT_DATA", data)
	out := filepath.Join(t.TempDir(), "site")

	var buf bytes.Buffer
	root := (&app{}).rootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error",
		"--roster", writeRoster(t), "export", "--out", out})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "exported 0 sessions")
	assert.FileExists(t, filepath.Join(out, "manifest.json"))
}

func TestServeHelpListsRoutes(t *testing.T) {
	out, err := run(t, "serve", "--help")
	require.NoError(t, err)
	for _, route := range []string{
		"/api/research", "/api/clarify", "/api/sessions/{id}/events",
		"/api/sessions/{id}/report.html", "/api/search", "/api/team", "/api/creatures/{name}", "/healthz",
	} {
		assert.Contains(t, out, route)
	}
}
