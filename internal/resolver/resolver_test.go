package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestResolve_PythonDottedAndRelativeImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/__init__.py", "")
	writeFile(t, root, "pkg/a.py", "import pkg.b\nfrom . import c\n")
	writeFile(t, root, "pkg/b.py", "x = 1\n")

	res, err := Resolve(root, []string{"pkg/a.py"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	// "from . import c" resolves the relative package itself (pkg/__init__.py),
	// matching the original resolver's behavior of only tracking the dotted
	// prefix when no explicit submodule is named.
	assert.ElementsMatch(t, []string{"pkg/b.py", "pkg/__init__.py"}, res.ResolvedFiles)
	assert.Empty(t, res.SkippedImports)
}

func TestResolve_PythonMissingModuleIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "import nope\n")

	res, err := Resolve(root, []string{"a.py"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.ResolvedFiles)
	require.Len(t, res.SkippedImports, 1)
	assert.Equal(t, "missing", res.SkippedImports[0].Reason)
}

func TestResolve_JSRelativeImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", `import { b } from "./b";`)
	writeFile(t, root, "src/b.ts", "export const b = 1;\n")

	res, err := Resolve(root, []string{"src/a.ts"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, res.ResolvedFiles, "src/b.ts")
}

func TestResolve_TSConfigPathAlias(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.json", `{"compilerOptions":{"baseUrl":".","paths":{"@/*":["src/*"]}}}`)
	writeFile(t, root, "src/entry.ts", `import { foo } from "@/foo";`)
	writeFile(t, root, "src/foo.ts", "export const foo = 1;\n")

	res, err := Resolve(root, []string{"src/entry.ts"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, res.ResolvedFiles, "src/foo.ts")
	for _, f := range res.ResolvedFiles {
		assert.NotContains(t, f, "node_modules")
	}
}

func TestResolve_BareExternalSpecifierIsSkippedExternal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", `import React from "react";`)

	res, err := Resolve(root, []string{"src/a.ts"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.SkippedImports, 1)
	assert.Equal(t, "external", res.SkippedImports[0].Reason)
}

func TestResolve_MaxFilesCutoff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "import b\nimport c\nimport d\n")
	writeFile(t, root, "b.py", "")
	writeFile(t, root, "c.py", "")
	writeFile(t, root, "d.py", "")

	res, err := Resolve(root, []string{"a.py"}, 5, 2, DefaultConfig())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.ResolvedFiles), 2)
}

func TestResolve_CyclicImportsDoNotLoop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "import b\n")
	writeFile(t, root, "b.py", "import a\n")

	res, err := Resolve(root, []string{"a.py"}, 10, 100, DefaultConfig())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.py"}, res.ResolvedFiles)
}

func TestResolve_ContainmentRejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "secret.py", "")
	writeFile(t, root, "a.py", "from .. import secret\n")

	res, err := Resolve(root, []string{"a.py"}, 5, 100, DefaultConfig())
	require.NoError(t, err)
	for _, f := range res.ResolvedFiles {
		assert.False(t, filepath.IsAbs(f))
	}
}
