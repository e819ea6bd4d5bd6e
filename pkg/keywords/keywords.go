package keywords

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale stories use when they declare none.
const BaseLocale = "en"

var (
	//go:embed keywords.yaml
	tableContent []byte

	// Default is the built-in keyword table. It is never modified.
	Default = MustLoad(tableContent)

	validate = validator.New()
)

// Set is the vocabulary of the story grammar in one locale.
type Set struct {
	Locale string `yaml:"-"`

	Narrative     string `yaml:"narrative" validate:"required"`
	AsA           string `yaml:"as_a" validate:"required"`
	InOrderTo     string `yaml:"in_order_to" validate:"required"`
	IWantTo       string `yaml:"i_want_to" validate:"required"`
	GivenStories  string `yaml:"given_stories" validate:"required"`
	Ignorable     string `yaml:"ignorable" validate:"required"`
	Scenario      string `yaml:"scenario" validate:"required"`
	ExamplesTable string `yaml:"examples_table" validate:"required"`
	Given         string `yaml:"given" validate:"required"`
	When          string `yaml:"when" validate:"required"`
	Then          string `yaml:"then" validate:"required"`
	And           string `yaml:"and" validate:"required"`
}

// All returns every keyword of the set, narrative keywords first and step
// keywords last.
func (s Set) All() []string {
	return []string{
		s.Narrative, s.AsA, s.InOrderTo, s.IWantTo,
		s.GivenStories, s.Ignorable, s.Scenario, s.ExamplesTable,
		s.Given, s.When, s.Then, s.And,
	}
}

// StepStarters returns the keywords a step line can begin with.
func (s Set) StepStarters() []string {
	return []string{s.Given, s.When, s.Then, s.And}
}

// Table maps locale tags to keyword sets.
type Table struct {
	defaultLocale string
	sets          map[string]Set
}

type tableFile struct {
	Default string         `yaml:"default"`
	Locales map[string]Set `yaml:"locales"`
}

// Load parses a YAML keyword table. Every locale must define every keyword and
// the default locale must be one of them.
func Load(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing keyword table: %w", err)
	}

	t := &Table{defaultLocale: strings.ToLower(file.Default), sets: make(map[string]Set, len(file.Locales))}
	for locale, set := range file.Locales {
		if err := validate.Struct(set); err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		locale = strings.ToLower(locale)
		set.Locale = locale
		t.sets[locale] = set
	}

	if _, ok := t.sets[t.defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q is not defined", file.Default)
	}
	return t, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(data []byte) *Table {
	t, err := Load(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the keywords for a locale tag. Region variants such as
// "pt_BR" fall back to their language, unknown tags to the default set.
func (t *Table) Lookup(locale string) Set {
	if set, ok := t.find(locale); ok {
		return set
	}
	return t.Default()
}

// Has reports whether Lookup resolves the tag to a set of its own.
func (t *Table) Has(locale string) bool {
	_, ok := t.find(locale)
	return ok
}

func (t *Table) find(locale string) (Set, bool) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if set, ok := t.sets[locale]; ok {
		return set, true
	}
	if i := strings.IndexAny(locale, "_-"); i > 0 {
		set, ok := t.sets[locale[:i]]
		return set, ok
	}
	return Set{}, false
}

// Default returns the set used for stories without a known locale.
func (t *Table) Default() Set {
	return t.sets[t.defaultLocale]
}

// Locales lists the known locale tags.
func (t *Table) Locales() []string {
	locales := make([]string, 0, len(t.sets))
	for locale := range t.sets {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// WithDefault returns a table sharing the same sets with another default
// locale.
func (t *Table) WithDefault(locale string) (*Table, error) {
	set, ok := t.find(locale)
	if !ok {
		return nil, fmt.Errorf("unknown locale %q, expected one of %s", locale, strings.Join(t.Locales(), ", "))
	}
	return &Table{defaultLocale: set.Locale, sets: t.sets}, nil
}
