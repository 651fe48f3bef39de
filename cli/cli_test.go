package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/trellotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	statusDryRun, statusJSON, statusDB = false, false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func configure(t *testing.T, apiURL string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trello_config.yml")
	content := fmt.Sprintf(`user_name: %s
board_name: %s
idle_threshold: 1440
api_url: %s
board_lists:
  - name: To Do
    tag: backlog
  - name: Doing
    tag: doing
  - name: Done
    tag: done
`, trellotest.UserName, trellotest.BoardName, apiURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(config.EnvAPIKey, trellotest.Key)
	t.Setenv(config.EnvAPIToken, trellotest.Token)
	t.Setenv(config.EnvConfigFile, path)
}

func TestStatus_NotConfigured(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIToken, "")
	t.Setenv(config.EnvConfigFile, "")

	_, err := execute(t, "status")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestStatus_Summary(t *testing.T) {
	srv := trellotest.New()
	t.Cleanup(srv.Close)
	configure(t, srv.BaseURL())

	now := time.Now()
	late := trellotest.DoingCard("c-late", "Write docs", now)
	late.Due = trellotest.Date(now.Add(-2 * time.Hour))
	srv.AddCard(late, trellotest.Checklist("cl1", "Docs", "incomplete"))

	out, err := execute(t, "status", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "- Overdue Tasks:\nOverdue Task 001: Write docs\n")
	assert.Empty(t, srv.Mutations())
}

func TestStatus_JSONWithSnapshot(t *testing.T) {
	srv := trellotest.New()
	t.Cleanup(srv.Close)
	configure(t, srv.BaseURL())
	srv.AddCard(trellotest.DoingCard("c-done", "Ship", time.Now()), trellotest.Checklist("cl1", "Ship", "complete"))

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	out, err := execute(t, "status", "--json", "--db", dbPath)
	require.NoError(t, err)

	var rep struct {
		Buckets map[string][]struct {
			CloseSummary string `json:"close_summary"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Buckets["complete"], 1)
	assert.Contains(t, rep.Buckets["complete"][0].CloseSummary, "Alice Doe")

	assert.Len(t, srv.Mutations(), 3)
	assert.FileExists(t, dbPath)
}

func TestDoctor(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIToken, "")
	t.Setenv(config.EnvConfigFile, "")

	out, err := execute(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "✗ API key and token")
	assert.Contains(t, out, "✗ configuration file")

	configure(t, "http://127.0.0.1:1/1")
	out, err = execute(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ configuration valid")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trello_config.yml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Doing", cfg.List(config.TagDoing).Name)
}
