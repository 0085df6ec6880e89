package http

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"churnapi/churn"
)

const (
	msgMissingBody      = "missing JSON body"
	msgMissingFeatures  = "missing features: %s"
	msgUnavailable      = "model or scaler not loaded"
	msgPredictionFailed = "prediction failed: %s"
	msgInternal         = "internal server error"
)

// 支持的语言，第一个为默认
var supportedLanguages = []language.Tag{
	language.English,
	language.French,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	message.SetString(language.French, msgMissingBody, "corps JSON manquant")
	message.SetString(language.French, msgMissingFeatures, "features manquantes : %s")
	message.SetString(language.French, msgUnavailable, "modèle ou scaler non chargé")
	message.SetString(language.French, msgPredictionFailed, "échec de la prédiction : %s")
	message.SetString(language.French, msgInternal, "erreur interne du serveur")
}

// printerFor 根据Accept-Language选择消息语言
func printerFor(r *http.Request) *message.Printer {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, index, _ := languageMatcher.Match(tags...)
	return message.NewPrinter(supportedLanguages[index])
}

// localizeError renders a prediction failure in the printer's language.
func localizeError(p *message.Printer, err error) string {
	var churnErr *churn.Error
	if !errors.As(err, &churnErr) {
		return p.Sprintf(msgPredictionFailed, err.Error())
	}
	switch churnErr.Kind {
	case churn.KindInvalidInput:
		return p.Sprintf(msgMissingFeatures, strings.Join(churnErr.Missing, ", "))
	case churn.KindUnavailable:
		return p.Sprintf(msgUnavailable)
	default:
		if churnErr.Err == nil {
			return p.Sprintf(msgInternal)
		}
		return p.Sprintf(msgPredictionFailed, churnErr.Err.Error())
	}
}
