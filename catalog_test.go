package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		text := "# doc\ndashboard = Dashboard\nbroken line\nitems-total = {$count} items\n"
		c, err := Load("en", text)
		require.NoError(t, err)

		assert.Equal(t, "en", c.Locale())
		assert.Equal(t, []string{"dashboard", "items-total"}, c.Keys())
		assert.Equal(t, 2, c.Len())

		tpl, ok := c.Lookup("items-total")
		require.True(t, ok)
		assert.Equal(t, []string{"count"}, tpl.Variables())

		e, ok := c.Entry("dashboard")
		require.True(t, ok)
		assert.Equal(t, "doc", e.Comment)

		require.Len(t, c.Warnings(), 1)
		assert.ErrorIs(t, c.Warnings()[0], ErrMalformedEntry)
	})

	t.Run("CanonicalLocale", func(t *testing.T) {
		c, err := Load("pt_br", "a = b")
		require.NoError(t, err)
		assert.Equal(t, "pt-BR", c.Locale())
	})

	t.Run("InvalidLocale", func(t *testing.T) {
		_, err := Load("not a locale!", "a = b")
		assert.ErrorIs(t, err, ErrInvalidLocale)
	})

	t.Run("Empty", func(t *testing.T) {
		for _, text := range []string{"", "   \n\t\n", "\uFEFF"} {
			_, err := Load("en", text)
			require.ErrorIs(t, err, ErrEmptyCatalog)

			var ee *EmptyCatalogError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, "en", ee.Locale)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		_, err := Load("en", "a = \xff\xfe")
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("DuplicateKeyLastWins", func(t *testing.T) {
		c, err := Load("en", "a = 1\na = 2")
		require.NoError(t, err)
		tpl, ok := c.Lookup("a")
		require.True(t, ok)
		out, err := Render(tpl, nil)
		require.NoError(t, err)
		assert.Equal(t, "2", out)
		require.Len(t, c.Warnings(), 1)
		assert.ErrorIs(t, c.Warnings()[0], ErrDuplicateKey)
	})

	t.Run("UnterminatedReferenceDropped", func(t *testing.T) {
		for _, body := range []string{"Hello {$name", "Hello {$name, see }", "Hello {$name. Press {Enter}"} {
			c, err := Load("en", "greeting = "+body+"\nok = fine")
			require.NoError(t, err)

			_, ok := c.Lookup("greeting")
			assert.False(t, ok, "broken entry must not be usable: %q", body)
			assert.Equal(t, []string{"ok"}, c.Keys())

			require.Len(t, c.Warnings(), 1)
			var te *TemplateError
			require.ErrorAs(t, c.Warnings()[0], &te)
			assert.Equal(t, "greeting", te.Key)
			assert.ErrorIs(t, te, ErrUnterminatedReference)

			// still there for tooling
			_, ok = c.Entry("greeting")
			assert.True(t, ok)
		}
	})

	t.Run("UnterminatedReferenceKeptRaw", func(t *testing.T) {
		c, err := Load("en", "greeting = Hello {$name, see }", WithTemplateErrors(KeepRaw))
		require.NoError(t, err)

		tpl, ok := c.Lookup("greeting")
		require.True(t, ok)
		out, err := Render(tpl, map[string]string{"name": "x"})
		require.NoError(t, err)
		assert.Equal(t, "Hello {$name, see }", out)
		assert.Len(t, c.Warnings(), 1)
	})

	t.Run("CommentsOnly", func(t *testing.T) {
		c, err := Load("en", "# nothing yet\n")
		require.NoError(t, err)
		assert.Zero(t, c.Len())
	})
}

func TestLoadReader(t *testing.T) {
	c, err := LoadReader("fr", strings.NewReader("settings = Paramètres"))
	require.NoError(t, err)
	assert.Equal(t, []string{"settings"}, c.Keys())

	boom := errors.New("disk on fire")
	_, err = LoadReader("fr", iotest.ErrReader(boom))
	require.ErrorIs(t, err, ErrEmptyCatalog)
	assert.ErrorIs(t, err, boom)
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog("es", []Entry{
		{Key: "dashboard", Body: "Panel"},
		{Key: "bad key", Body: "x"},
		{Key: "dashboard", Body: "Tablero"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard"}, c.Keys())

	tpl, _ := c.Lookup("dashboard")
	assert.Equal(t, "Tablero", tpl.Body())

	ws := c.Warnings()
	require.Len(t, ws, 2)
	assert.ErrorIs(t, ws[0], ErrMalformedEntry)
	assert.ErrorIs(t, ws[1], ErrDuplicateKey)
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c, err := Load("en", "a = 1\nb = 2\nc = {$x")
	require.NoError(t, err)

	keys := c.Keys()
	keys[0] = "zzz"
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	entries := c.Entries()
	entries[0].Body = "changed"
	e, _ := c.Entry("a")
	assert.Equal(t, "1", e.Body)

	ws := c.Warnings()
	ws[0] = nil
	assert.NotNil(t, c.Warnings()[0])
}
