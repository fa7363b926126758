package cmd

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	jwttoken "listmgmt/internal/jwt_token"
	"listmgmt/internal/platform/config"
)

// =============================================================================
// CLI Tests
// =============================================================================

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listsvc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestHelp(t *testing.T) {
	code, out, _ := run(t, "--help")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "listsvc")
	for _, sub := range []string{"serve", "worker", "migrate", "token"} {
		assert.Contains(t, out, sub)
	}
}

func TestTokenIssuesVerifiableToken(t *testing.T) {
	cfgPath := writeConfig(t, "auth:\n  jwt_signing_key: cli-test-key\n")

	code, out, errOut := run(t, "token", "--config", cfgPath, "--subject", "ops", "--role", "admin")
	require.Equal(t, 0, code, errOut)

	cfg := config.Default()
	jwt := jwttoken.NewJWTService("cli-test-key", cfg.Auth.Issuer, cfg.Auth.Audience)
	principal, err := jwt.AuthenticateAndAuthorize(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, jwttoken.Principal{Identity: "ops", Role: "admin"}, principal)
}

func TestTokenRequiresFlags(t *testing.T) {
	code, _, errOut := run(t, "token", "--subject", "ops")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "role")
}

func TestMigrateCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lists.db")
	cfgPath := writeConfig(t, fmt.Sprintf("database:\n  driver: sqlite\n  dsn: %q\n", "file:"+dbPath))

	code, _, errOut := run(t, "migrate", "--config", cfgPath)
	require.Equal(t, 0, code, errOut)

	db, err := sql.Open("sqlite", "file:"+dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('lists', 'list_items')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestBadConfigFails(t *testing.T) {
	cfgPath := writeConfig(t, "queue:\n  backend: carrier-pigeon\n")
	code, _, errOut := run(t, "migrate", "--config", cfgPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "carrier-pigeon")
}
