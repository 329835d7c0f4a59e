package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("GitCommit", func(t *testing.T) {
		out, err := Render(MustCompile("Git commit {$hash} on {$date}"), map[string]string{
			"hash": "abc123",
			"date": "2024-01-01",
		})
		require.NoError(t, err)
		assert.Equal(t, "Git commit abc123 on 2024-01-01", out)
	})

	t.Run("NoPlaceholdersRoundTrip", func(t *testing.T) {
		for _, body := range []string{"", "Refresh", "{not a ref} }{", "Connexion...", "a = b"} {
			entries, errs := Parse("key = " + body)
			require.Empty(t, errs)
			require.Len(t, entries, 1)

			tpl, err := Compile(entries[0].Body)
			require.NoError(t, err)
			out, err := Render(tpl, nil)
			require.NoError(t, err)
			assert.Equal(t, body, out)
		}
	})

	t.Run("SubstitutionLeavesOtherTextAlone", func(t *testing.T) {
		body := "{x} {$name}! {$name}? {$ name}"
		out, err := Render(MustCompile(body), map[string]string{"name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, strings.ReplaceAll(body, "{$name}", "Ada"), out)
	})

	t.Run("ValuesAreNotReinterpreted", func(t *testing.T) {
		out, err := Render(MustCompile("{$a}"), map[string]string{"a": "{$b}", "b": "no"})
		require.NoError(t, err)
		assert.Equal(t, "{$b}", out)
	})

	t.Run("ExtraVariablesIgnored", func(t *testing.T) {
		out, err := Render(MustCompile("{$count} items"), map[string]string{"count": "3", "unused": "x"})
		require.NoError(t, err)
		assert.Equal(t, "3 items", out)
	})

	t.Run("NilTemplate", func(t *testing.T) {
		out, err := Render(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("TemplateMethod", func(t *testing.T) {
		out, err := MustCompile("Error: {$error}").Render(map[string]string{"error": "timeout"})
		require.NoError(t, err)
		assert.Equal(t, "Error: timeout", out)
	})
}

func TestRenderer_MissingVariable(t *testing.T) {
	tpl := MustCompile("Page {$page} of {$total}")
	vars := map[string]string{"page": "2"}

	t.Run("Fail", func(t *testing.T) {
		out, err := Renderer{Missing: FailOnMissing}.Render(tpl, vars)
		require.ErrorIs(t, err, ErrUnresolvedVariable)
		var ue *UnresolvedVariableError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "total", ue.Name)
		assert.Empty(t, out)
	})

	t.Run("ZeroValueFails", func(t *testing.T) {
		_, err := Renderer{}.Render(tpl, vars)
		assert.ErrorIs(t, err, ErrUnresolvedVariable)
	})

	t.Run("EmitPlaceholder", func(t *testing.T) {
		out, missing, err := Renderer{Missing: EmitPlaceholder}.RenderReport(tpl, vars)
		require.NoError(t, err)
		assert.Equal(t, "Page 2 of {$total}", out)
		assert.Equal(t, []string{"total"}, missing)
	})

	t.Run("EmitEmpty", func(t *testing.T) {
		out, missing, err := Renderer{Missing: EmitEmpty}.RenderReport(tpl, nil)
		require.NoError(t, err)
		assert.Equal(t, "Page  of ", out)
		assert.Equal(t, []string{"page", "total"}, missing)
	})
}

func TestParseMissingVariablePolicy(t *testing.T) {
	for in, want := range map[string]MissingVariablePolicy{
		"":                 FailOnMissing,
		"fail":             FailOnMissing,
		"emit_placeholder": EmitPlaceholder,
		" EMIT_EMPTY ":     EmitEmpty,
	} {
		got, err := ParseMissingVariablePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMissingVariablePolicy("explode")
	assert.Error(t, err)

	var p MissingVariablePolicy
	require.NoError(t, p.UnmarshalText([]byte("emit_empty")))
	assert.Equal(t, EmitEmpty, p)
	assert.Equal(t, "emit_empty", p.String())
}
