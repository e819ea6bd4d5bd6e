package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	en := Default.Default()
	assert.Equal(t, BaseLocale, en.Locale)
	assert.Equal(t, []string{
		"Narrative:", "As a", "In order to", "I want to",
		"GivenStories:", "!--", "Scenario:", "Examples:",
		"Given", "When", "Then", "And",
	}, en.All())
	assert.Equal(t, []string{"Given", "When", "Then", "And"}, en.StepStarters())
	assert.Equal(t, []string{"de", "en", "es", "fr", "it", "pt"}, Default.Locales())
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		name          string
		locale        string
		expectedGiven string
		expectedHas   bool
	}{
		{name: "known locale", locale: "fr", expectedGiven: "Étant donné que", expectedHas: true},
		{name: "upper case tag", locale: "DE", expectedGiven: "Gegeben sei", expectedHas: true},
		{name: "region variant", locale: "pt_BR", expectedGiven: "Dado que", expectedHas: true},
		{name: "dashed region variant", locale: "es-MX", expectedGiven: "Dado que", expectedHas: true},
		{name: "unknown locale falls back", locale: "xx", expectedGiven: "Given"},
		{name: "empty locale falls back", locale: "", expectedGiven: "Given"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedGiven, Default.Lookup(tc.locale).Given)
			assert.Equal(t, tc.expectedHas, Default.Has(tc.locale))
		})
	}
}

func TestWithDefault(t *testing.T) {
	de, err := Default.WithDefault("de")
	require.NoError(t, err)
	assert.Equal(t, "Wenn", de.Lookup("unknown").When)
	assert.Equal(t, "When", Default.Lookup("unknown").When, "the built-in table must not change")

	_, err = Default.WithDefault("klingon")
	assert.EqualError(t, err, `unknown locale "klingon", expected one of de, en, es, fr, it, pt`)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name  string
		table string
		err   string
	}{
		{
			name:  "bad yaml",
			table: "default: [",
			err:   "parsing keyword table",
		},
		{
			name:  "missing default",
			table: "default: en\nlocales: {}\n",
			err:   `default locale "en" is not defined`,
		},
		{
			name: "incomplete locale",
			table: `default: en
locales:
  en:
    given: Given
`,
			err: `locale "en"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.table))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}
