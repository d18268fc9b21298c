package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitDBCommand_Print(t *testing.T) {
	t.Cleanup(func() { initDBPrint = false })

	out, err := executeRoot(t, "init-db", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS locations")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS companies")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS job_reqs")
}

func TestInitDBCommand_MissingURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := executeRoot(t, "init-db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL required")
}

func TestResolveCommand_CommaFallback(t *testing.T) {
	t.Setenv("GEOCODE_URL", "")
	t.Setenv("REDIS_URL", "")

	out, err := executeRoot(t, "resolve", "Austin, TX, USA", "Remote")
	require.NoError(t, err)
	assert.Contains(t, out, "COUNTRY RESOLUTION")
	assert.Contains(t, out, "Austin, TX, USA → USA")
	assert.Contains(t, out, "Remote → (not resolved)")
}

func TestResolveCommand_Geocoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := []map[string]any{}
		if r.URL.Query().Get("location") == "Tel Aviv" {
			results = append(results, map[string]any{"name": "Tel Aviv, Israel", "c": "IL"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Results": results})
	}))
	defer server.Close()
	t.Setenv("REDIS_URL", "")
	t.Cleanup(func() { resolveGeocodeURL = "" })

	out, err := executeRoot(t, "resolve", "--geocode-url", server.URL, "Tel Aviv")
	require.NoError(t, err)
	assert.Contains(t, out, "Tel Aviv → Israel")
}

func TestResolveCommand_RequiresLocation(t *testing.T) {
	_, err := executeRoot(t, "resolve")
	assert.Error(t, err)
}

func TestCrawlCommand_RejectsLimits(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "crawl", "--limit-search-pages", "31")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail")
	assert.Contains(t, string(output), "--limit-search-pages must be between 1 and 30")
	if exitError, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 1, exitError.ExitCode(), "should exit with code 1 on invalid flags")
	}
}

func TestCrawlCommand_UnknownPreset(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "crawl", "--search", "fr", "--engine", "static", "--out", t.TempDir())
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail")
	assert.Contains(t, string(output), "config error")
}

func TestInitDBCommand_PrintBinary(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "init-db", "--print").CombinedOutput()

	assert.NoError(t, err, "command should succeed")
	assert.Contains(t, string(output), "job_reqs")
}

func TestCrawlConfig_JSONLogsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: static\njson_logs: true\n"), 0o644))
	crawlConfigPath = path
	t.Cleanup(func() { crawlConfigPath = "" })

	cfg, err := crawlConfig(crawlCmd)
	require.NoError(t, err)
	assert.True(t, cfg.JSONLogs)
	assert.Equal(t, "static", cfg.Engine)
}
