package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	root, err := GetWorkspaceRoot()
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "go.mod"))

	path, err := ResolvePath("reports/out.tsv")
	require.NoError(t, err)
	require.Equal(t, "reports/out.tsv", path)

	path, err = ResolvePath("<dev_state>/pages.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "pages.db"), path)
	require.DirExists(t, filepath.Dir(path))

	path, err = GetStateFilePath("edgar_live.json5")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "edgar_live.json5"), path)
}
