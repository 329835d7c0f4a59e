package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	base, err := Load("en", `dashboard = Dashboard
settings = Settings
status-error = Error: {$error}
git-commit = Git commit {$hash} on {$date}
`)
	require.NoError(t, err)

	other, err := Load("fr", `settings = Paramètres
status-error = Erreur : {$message}
git-commit = Commit Git {$date} {$hash}
legacy = Ancien
`)
	require.NoError(t, err)

	d := Diff(base, other)
	assert.False(t, d.Empty())
	assert.Equal(t, []string{"dashboard"}, d.Missing)
	assert.Equal(t, []string{"legacy"}, d.Extra)
	assert.Equal(t, []PlaceholderMismatch{
		{Key: "status-error", Missing: []string{"error"}, Extra: []string{"message"}},
	}, d.Placeholders, "variable order does not matter")

	assert.True(t, Diff(base, base).Empty())
}
