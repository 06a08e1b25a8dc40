package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":                        "en",
		"en":                      "en",
		"de":                      "de",
		"de-DE":                   "de",
		"de-DE,de;q=0.9,en;q=0.8": "de",
		"fr-FR,fr;q=0.9":          "en",
		"fr;q=0.9,de;q=0.8":       "de",
		"EN-us":                   "en",
		" de ":                    "de",
	}

	for header, want := range cases {
		assert.Equalf(t, want, NormalizeLocale(header), "header %q", header)
	}
}
