package i18n

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnglish(t *testing.T) {
	c, err := Load("EN")
	require.NoError(t, err)

	assert.Equal(t, "en", c.Language())
	assert.Equal(t, "Server play.example.com online", c.T("status.online_title", "play.example.com"))
	assert.Equal(t, "Yes", c.YesNo(true))
	assert.Equal(t, "No", c.YesNo(false))
	assert.Equal(t, "missing.key", c.T("missing.key"))
}

func TestLoadRussian(t *testing.T) {
	c, err := Load("ru")
	require.NoError(t, err)

	assert.Equal(t, "ru", c.Language())
	assert.Equal(t, "Сервер не отвечает или недоступен.", c.T("status.offline_description"))
	assert.Equal(t, "Да", c.YesNo(true))
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	c, err := Load("de")
	require.NoError(t, err)
	assert.Equal(t, "en", c.Language())
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	en, err := loadCatalog("en")
	require.NoError(t, err)

	entries, err := fs.ReadDir(locales, "locales")
	require.NoError(t, err)

	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".yaml")
		c, err := loadCatalog(lang)
		require.NoError(t, err, lang)

		for key := range en.messages {
			_, ok := c.messages[key]
			assert.True(t, ok, "%s is missing %s", lang, key)
		}
	}
}
