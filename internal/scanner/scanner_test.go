package scanner

import (
	"testing"

	"github.com/AbdelazizMoustafa10m/Raven/internal/cvatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFiles_FindsBuiltinViolations(t *testing.T) {
	s := New(BuiltinCatalog())

	contents := map[string]string{
		"app.py": "import subprocess\n" +
			"subprocess.run(cmd, shell=True)\n" +
			"API_KEY = 'sk-abcdefghijklmnop'\n",
	}

	result := s.ScanFiles(contents)

	require.Len(t, result.Violations, 2)
	assert.Equal(t, 1, result.FilesScanned)

	var ids []string
	for _, v := range result.Violations {
		ids = append(ids, v.RuleID)
	}
	assert.Contains(t, ids, "exec-shell-true")
	assert.Contains(t, ids, "hardcoded-secret")
}

func TestScanFiles_ReportsCorrectLineNumbers(t *testing.T) {
	s := New(BuiltinCatalog())
	contents := map[string]string{
		"a.py": "x = 1\ny = 2\neval(user_input)\n",
	}

	result := s.ScanFiles(contents)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, 3, result.Violations[0].Line)
	assert.Equal(t, "a.py", result.Violations[0].File)
}

func TestScanFiles_TotalScoreSumsWeights(t *testing.T) {
	rules := []Rule{
		MustCompile("r1", `foo`, cvatypes.SeverityHigh, "found foo", ""),
		MustCompile("r2", `bar`, cvatypes.SeverityLow, "found bar", ""),
	}
	s := New(rules)

	result := s.ScanFiles(map[string]string{"f.txt": "foo bar\nfoo\n"})

	// foo matches twice (weight 5 each), bar matches once (weight 1).
	assert.Equal(t, 11, result.TotalScore)
}

func TestScanFiles_NoMatchesYieldsEmptyResult(t *testing.T) {
	s := New(BuiltinCatalog())
	result := s.ScanFiles(map[string]string{"clean.py": "def add(a, b):\n    return a + b\n"})

	assert.Empty(t, result.Violations)
	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, 1, result.FilesScanned)
}
