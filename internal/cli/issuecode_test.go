package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCodePrintsCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	out, err := runCLI(t, "issue-code", "--data", path)

	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, strings.TrimSpace(out))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "issuing a code persists it")
}

func TestIssueCodeJSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	out, err := runCLI(t, "--format", "json", "issue-code", "--data", path)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "json output must parse: %s", out)
	assert.Equal(t, "ok", resp.Status)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, resp.Data["code"])
}

func TestIssueCodesAreUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	first, err := runCLI(t, "issue-code", "--data", path)
	require.NoError(t, err)
	second, err := runCLI(t, "issue-code", "--data", path)
	require.NoError(t, err)

	assert.NotEqual(t, strings.TrimSpace(first), strings.TrimSpace(second))
}
