package cli

import (
	"embed"
	"fmt"

	"github.com/jeandeaual/go-locale"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	autoLanguage     = "auto"
	fallbackLanguage = "en"
)

//go:embed lang/active.*.toml
var langFS embed.FS

func newBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if _, err := bundle.LoadMessageFileFS(langFS, "lang/active.ru.toml"); err != nil {
		return nil, fmt.Errorf("load message file: %w", err)
	}

	return bundle, nil
}

// newLocalizer picks the configured language, or the system's one for "auto".
// An unknown system locale isn't fatal, messages just stay in English.
func newLocalizer(logger *zap.SugaredLogger, bundle *i18n.Bundle, lang string) *i18n.Localizer {
	if lang == "" || lang == autoLanguage {
		systemLang, err := locale.GetLanguage()
		if err != nil {
			logger.Debugw("Failed to get system locale, using fallback", "error", err, "fallback", fallbackLanguage)
			systemLang = fallbackLanguage
		}

		lang = systemLang
	}

	logger.Debugf("Selected language: %s", lang)

	return i18n.NewLocalizer(bundle, lang, fallbackLanguage)
}

func (a *app) localize(id string, other string, data map[string]interface{}) string {
	return a.localizer.MustLocalize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID:    id,
			Other: other,
		},
		TemplateData: data,
	})
}
