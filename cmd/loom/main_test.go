package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, dir string, documents map[string]string) {
	t.Helper()

	manifest := "name: site\nnamespace: example.site\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loom.yaml"), []byte(manifest), 0o600))

	for target, text := range documents {
		path := filepath.Join(dir, filepath.FromSlash(target))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	}
}

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tests := []struct {
		name         string
		documents    map[string]string
		args         []string
		expectedExit int
	}{
		{
			name: "Success with valid project",
			documents: map[string]string{
				"_imports.weft":    "@using site.base\n",
				"pages/index.weft": "<h1>@model.Title</h1>\n",
			},
			args:         []string{"loom", "compile", "."},
			expectedExit: 0,
		},
		{
			name: "Failure on malformed document",
			documents: map[string]string{
				"pages/index.weft": "<h1>@ </h1>\n",
			},
			args:         []string{"loom", "compile", "."},
			expectedExit: 1,
		},
		{
			name:         "Failure on missing manifest",
			documents:    nil,
			args:         []string{"loom", "compile", "."},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			if tt.documents != nil {
				writeProject(t, tmpDir, tt.documents)
			}

			originalWd, _ := os.Getwd()
			require.NoError(t, os.Chdir(tmpDir))
			defer func() {
				_ = os.Chdir(originalWd)
			}()

			os.Args = tt.args

			exitCode := run()
			assert.Equal(t, tt.expectedExit, exitCode)

			if tt.expectedExit == 0 {
				_, err := os.Stat(filepath.Join(tmpDir, "pages", "index.weft.go"))
				assert.NoError(t, err)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	os.Args = []string{"loom", "version"}
	assert.Equal(t, 0, run())
}
