package catalog

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func TestLoadDir(t *testing.T) {
	t.Run("Testdata", func(t *testing.T) {
		catalogs, err := LoadDir(os.DirFS("testdata/i18n"))
		require.NoError(t, err)
		require.Len(t, catalogs, 4)

		var locales []string
		for _, c := range catalogs {
			locales = append(locales, c.Locale())
		}
		assert.Equal(t, []string{"en", "es", "fr", "pt-BR"}, locales)

		es := catalogs[1]
		tpl, ok := es.Lookup("items-total")
		require.True(t, ok)
		assert.Equal(t, []string{"count"}, tpl.Variables())

		fr := catalogs[2]
		_, ok = fr.Lookup("page")
		assert.False(t, ok, "unterminated body is dropped")
		require.Len(t, fr.Warnings(), 1)
		assert.ErrorIs(t, fr.Warnings()[0], ErrUnterminatedReference)
	})

	t.Run("Layouts", func(t *testing.T) {
		fsys := fstest.MapFS{
			"en/app.ftl":    file("a = A\nb = B"),
			"en/extra.ftl":  file("c = C"),
			"de.ftl":        file("a = Ä"),
			"ja.yml":        file("language: ja\nmessages:\n  b: ビー\n  a: エー\n"),
			"README.md":     file("not a catalog"),
			"pt_BR/app.ftl": file("a = A-br"),
		}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		require.Len(t, catalogs, 4)

		assert.Equal(t, "de", catalogs[0].Locale())
		assert.Equal(t, "en", catalogs[1].Locale())
		assert.Equal(t, []string{"a", "b", "c"}, catalogs[1].Keys())
		assert.Equal(t, "ja", catalogs[2].Locale())
		assert.Equal(t, []string{"a", "b"}, catalogs[2].Keys())
		assert.Equal(t, "pt-BR", catalogs[3].Locale())
	})

	t.Run("DuplicateAcrossFilesLastWins", func(t *testing.T) {
		fsys := fstest.MapFS{
			"en/a.ftl": file("greeting = first\nother = o"),
			"en/b.ftl": file("# moved\n\ngreeting = second"),
		}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		require.Len(t, catalogs, 1)

		c := catalogs[0]
		assert.Equal(t, []string{"greeting", "other"}, c.Keys())
		tpl, _ := c.Lookup("greeting")
		assert.Equal(t, "second", tpl.Body())

		e, ok := c.Entry("greeting")
		require.True(t, ok)
		assert.Equal(t, "en/b.ftl", e.Source)
		assert.Equal(t, 3, e.Line)

		require.Len(t, c.Warnings(), 1)
		w := c.Warnings()[0]
		assert.ErrorIs(t, w, ErrDuplicateKey)
		assert.Contains(t, w.Error(), "en/b.ftl")

		var pe *ParseError
		require.ErrorAs(t, w, &pe)
		assert.Equal(t, 3, pe.Line, "line within en/b.ftl")
	})

	t.Run("TemplateErrorsNameTheFile", func(t *testing.T) {
		fsys := fstest.MapFS{"fr/app.ftl": file("ok = 1\npage = Page {$page sur {$total}\n")}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		require.Len(t, catalogs[0].Warnings(), 1)
		w := catalogs[0].Warnings()[0]
		assert.ErrorIs(t, w, ErrUnterminatedReference)
		assert.Contains(t, w.Error(), "fr/app.ftl")
	})

	t.Run("WarningsNameTheFile", func(t *testing.T) {
		fsys := fstest.MapFS{"en/app.ftl": file("ok = 1\nnope\n")}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		require.Len(t, catalogs[0].Warnings(), 1)
		assert.ErrorIs(t, catalogs[0].Warnings()[0], ErrMalformedEntry)
		assert.Contains(t, catalogs[0].Warnings()[0].Error(), "en/app.ftl")
	})

	t.Run("EmptyFilesSkipped", func(t *testing.T) {
		fsys := fstest.MapFS{
			"en/app.ftl":   file("a = 1"),
			"fr/empty.ftl": file("\n  \n"),
		}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		require.Len(t, catalogs, 1)
		assert.Equal(t, "en", catalogs[0].Locale())
	})

	t.Run("InvalidLocaleDirectory", func(t *testing.T) {
		fsys := fstest.MapFS{"not a locale/app.ftl": file("a = 1")}
		_, err := LoadDir(fsys)
		assert.ErrorIs(t, err, ErrInvalidLocale)
	})

	t.Run("YAMLWithoutLanguage", func(t *testing.T) {
		fsys := fstest.MapFS{"broken.yaml": file("messages:\n  a: b\n")}
		_, err := LoadDir(fsys)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "language")
	})

	t.Run("BadYAML", func(t *testing.T) {
		fsys := fstest.MapFS{"broken.yaml": file("language: [en\n")}
		_, err := LoadDir(fsys)
		assert.Error(t, err)
	})

	t.Run("YAMLKeysAreValidated", func(t *testing.T) {
		fsys := fstest.MapFS{"en.yaml": file("language: en\nmessages:\n  nav.home: Home\n  home: Home\n")}
		catalogs, err := LoadDir(fsys)
		require.NoError(t, err)
		assert.Equal(t, []string{"home"}, catalogs[0].Keys())
		require.Len(t, catalogs[0].Warnings(), 1)
		assert.ErrorIs(t, catalogs[0].Warnings()[0], ErrMalformedEntry)
	})
}

func TestRegistry_LoadDir(t *testing.T) {
	r := newTestRegistry(t, WithDefaultLocale("en"))
	require.NoError(t, r.LoadDir(os.DirFS("testdata/i18n")))
	assert.Equal(t, []string{"en", "es", "fr", "pt-BR"}, r.Locales())

	out, err := r.Render("fr", "git-commit", map[string]string{"hash": "abc123", "date": "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "Commit Git abc123 du 2024-01-01", out)

	// page is broken in French, English serves it
	out, err = r.Render("fr", "page", map[string]string{"page": "1", "total": "3"})
	require.NoError(t, err)
	assert.Equal(t, "Page 1 of 3", out)

	t.Run("ErrorLeavesRegistryUnchanged", func(t *testing.T) {
		err := r.LoadDir(fstest.MapFS{"x y/app.ftl": file("a = 1")})
		require.Error(t, err)
		assert.Equal(t, []string{"en", "es", "fr", "pt-BR"}, r.Locales())
	})

	t.Run("MustLoadDirPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			r.MustLoadDir(fstest.MapFS{"broken.yaml": file("messages: {}\n")})
		})
	})
}
