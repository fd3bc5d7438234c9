package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--driver", "memory"))
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedExportClearImport(t *testing.T) {
	out, err := run(t, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "products")

	out, err = run(t, "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Produtos:  6")

	backup := filepath.Join(t.TempDir(), "backup.json")
	_, err = run(t, "", "export", backup)
	require.NoError(t, err)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)

	out, err = run(t, "s\nn\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelado.")

	_, err = run(t, "s\ns\nconfirmar\n", "clear")
	assert.Error(t, err)

	out, err = run(t, "s\ns\nCONFIRMAR\n", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "apagados")

	out, err = run(t, "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Produtos:  0")

	out, err = run(t, "", "import", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Produtos:  6")
	assert.Contains(t, out, "Clientes:  4")
}

func TestReportCommand(t *testing.T) {
	_, err := run(t, "", "seed")
	require.NoError(t, err)

	out, err := run(t, "", "report", "stock")
	require.NoError(t, err)
	assert.Contains(t, out, `"OUT"`)

	_, err = run(t, "", "report", "sales", "--start", "ontem")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "produtos.xlsx")
	_, err = run(t, "", "report", "products", "--xlsx", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "", "report", "nonsense")
	assert.Error(t, err)
}

func TestRouteList(t *testing.T) {
	out, err := run(t, "", "route:list")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/registers/{register}/cart/commit")
}
