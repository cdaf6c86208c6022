// Package i18n holds the user-facing strings of the bot in embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// DefaultLanguage is used for unknown languages and missing keys
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var locales embed.FS

// Catalog resolves dotted keys such as "errors.no_permission"
type Catalog struct {
	lang     string
	messages map[string]string
	fallback *Catalog
}

// Load returns the catalog for lang, falling back to English for unknown
// languages and for keys a translation lacks.
func Load(lang string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))

	base, err := loadCatalog(DefaultLanguage)
	if err != nil {
		return nil, err
	}
	if lang == "" || lang == DefaultLanguage {
		return base, nil
	}

	translated, err := loadCatalog(lang)
	if err != nil {
		return base, nil
	}
	translated.fallback = base
	return translated, nil
}

// MustLoad is Load for process startup
func MustLoad(lang string) *Catalog {
	c, err := Load(lang)
	if err != nil {
		panic(err)
	}
	return c
}

func loadCatalog(lang string) (*Catalog, error) {
	data, err := locales.ReadFile("locales/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no catalog for language %q", lang)
	}

	var tree map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", lang, err)
	}

	messages := make(map[string]string)
	flatten("", tree, messages)
	return &Catalog{lang: lang, messages: messages}, nil
}

func flatten(prefix string, node map[interface{}]interface{}, out map[string]string) {
	for k, v := range node {
		key := fmt.Sprint(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		switch value := v.(type) {
		case map[interface{}]interface{}:
			flatten(key, value, out)
		default:
			out[key] = fmt.Sprint(value)
		}
	}
}

// Language returns the catalog language code
func (c *Catalog) Language() string {
	return c.lang
}

// T formats the message for key with args. Unknown keys are returned as-is.
func (c *Catalog) T(key string, args ...interface{}) string {
	msg, ok := c.lookup(key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// YesNo renders a boolean as the localized yes/no
func (c *Catalog) YesNo(v bool) string {
	if v {
		return c.T("common.yes")
	}
	return c.T("common.no")
}

func (c *Catalog) lookup(key string) (string, bool) {
	if msg, ok := c.messages[key]; ok {
		return msg, true
	}
	if c.fallback != nil {
		return c.fallback.lookup(key)
	}
	return "", false
}
