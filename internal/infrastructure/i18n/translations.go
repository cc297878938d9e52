// Package i18n renders email texts and API error messages from the embedded
// active.<lang>.toml catalogues.
package i18n

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"knallbonbon/internal/ports/output"
)

//go:embed active.*.toml
var catalogues embed.FS

var _ output.T = (*Translator)(nil)

// Translator resolves message keys per locale. Regional tags such as de-AT
// are matched to the closest catalogue; anything else gets the default.
type Translator struct {
	matcher    language.Matcher
	tags       []language.Tag
	localizers map[language.Tag]*i18n.Localizer
	logger     *logrus.Entry
}

func NewTranslator(defaultLocale string, logger *logrus.Entry) *Translator {
	def, err := language.Parse(defaultLocale)
	if err != nil {
		def = language.German
	}
	bundle := i18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, _ := fs.Glob(catalogues, "active.*.toml")
	for _, file := range files {
		if _, err := bundle.LoadMessageFileFS(catalogues, file); err != nil {
			logger.WithError(err).WithField("file", file).Error("Cannot load message catalogue")
		}
	}

	// The default goes first so that the matcher falls back to it.
	tags := []language.Tag{def}
	for _, tag := range bundle.LanguageTags() {
		if tag != def {
			tags = append(tags, tag)
		}
	}
	t := &Translator{
		matcher:    language.NewMatcher(tags),
		tags:       tags,
		localizers: make(map[language.Tag]*i18n.Localizer, len(tags)),
		logger:     logger,
	}
	for _, tag := range tags {
		t.localizers[tag] = i18n.NewLocalizer(bundle, tag.String(), def.String())
	}
	return t
}

// Locales lists the loaded catalogues, default first.
func (t *Translator) Locales() []string {
	out := make([]string, 0, len(t.tags))
	for _, tag := range t.tags {
		out = append(out, tag.String())
	}
	return out
}

func (t *Translator) localizer(locale string) *i18n.Localizer {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return t.localizers[t.tags[0]]
	}
	_, idx, conf := t.matcher.Match(language.Make(locale))
	if conf == language.No {
		return t.localizers[t.tags[0]]
	}
	return t.localizers[t.tags[idx]]
}

// T renders key for locale. Missing messages fall back to the default
// catalogue and then to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	msg, err := t.localizer(locale).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.WithError(err).WithFields(logrus.Fields{"key": key, "locale": locale}).Warn("Message not localized")
		return key
	}
	return msg
}
