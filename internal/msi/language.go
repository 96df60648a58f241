package msi

// languageNames maps the most common installer language identifiers (LCIDs)
// to their locale tags for operator display.
//
//nolint:gochecknoglobals // Read-only lookup table.
var languageNames = map[string]string{
	"1025": "ar-SA",
	"1028": "zh-TW",
	"1031": "de-DE",
	"1033": "en-US",
	"1034": "es-ES",
	"1036": "fr-FR",
	"1040": "it-IT",
	"1041": "ja-JP",
	"1042": "ko-KR",
	"1043": "nl-NL",
	"1046": "pt-BR",
	"1049": "ru-RU",
	"2052": "zh-CN",
	"2057": "en-GB",
	"0":    "neutral",
}

// LanguageName resolves a decimal ProductLanguage value to a locale tag.
// Unknown identifiers are passed through unchanged.
func LanguageName(lcid string) string {
	if name, ok := languageNames[lcid]; ok {
		return name
	}

	return lcid
}
