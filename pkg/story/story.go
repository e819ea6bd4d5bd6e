// Package story scans JBehave story files into the pieces the language server
// works with: steps, their kinds and example tables.
package story

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/grafana/jbehave-language-server/pkg/keywords"
)

// Kind is the kind of a step. And steps take the kind of the step before them.
type Kind int

const (
	// Unresolved is the kind of an And step with no step before it.
	Unresolved Kind = iota
	Given
	When
	Then
)

func (k Kind) String() string {
	switch k {
	case Given:
		return "given"
	case When:
		return "when"
	case Then:
		return "then"
	}
	return "unresolved"
}

// ParseKind parses "given", "when" or "then", ignoring case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "given":
		return Given, nil
	case "when":
		return When, nil
	case "then":
		return Then, nil
	}
	return Unresolved, fmt.Errorf("unknown step kind %q", s)
}

// localeRegexp matches the language declaration comment, e.g. "!-- language:fr".
var localeRegexp = regexp.MustCompile(`(?m)^[ \t]*!--[ \t]*language[ \t]*:[ \t]*([A-Za-z]{2,3}(?:[_-][A-Za-z]{2})?)`)

// DetectLocale returns the locale declared in a story, if any.
func DetectLocale(text string) (string, bool) {
	match := localeRegexp.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Step is one Given/When/Then/And step. Offsets are byte offsets into the
// document text; End is exclusive and excludes the trailing newline.
type Step struct {
	Kind Kind
	// Prefix is the keyword as written, e.g. "Given" or "And".
	Prefix string
	// Text is the step body after the keyword. Continuation lines are joined
	// with "\n".
	Text       string
	Start, End int
	Line       int
}

// Row is one line of a table.
type Row struct {
	Line       int
	Start, End int
	Indent     string
	Cells      []string
}

// Scenario is a scenario title line.
type Scenario struct {
	Title      string
	Start, End int
	Line       int
}

// Table is a run of consecutive table rows.
type Table struct {
	Rows []Row
}

// Document is a scanned story.
type Document struct {
	Text      string
	Locale    string
	Keywords  keywords.Set
	Scenarios []Scenario
	Steps     []Step
	Tables    []Table
}

// ParseWithTable detects the story locale and scans it with the matching
// keywords.
func ParseWithTable(text string, table *keywords.Table) *Document {
	locale, _ := DetectLocale(text)
	doc := Parse(text, table.Lookup(locale))
	doc.Locale = locale
	return doc
}

// Parse scans a story with the given keywords.
func Parse(text string, kw keywords.Set) *Document {
	doc := &Document{Text: text, Keywords: kw}

	starters := []starter{
		{kw.Given, Given}, {kw.When, When}, {kw.Then, Then}, {kw.And, Unresolved},
	}
	// Longer keywords first so a keyword that prefixes another never shadows it.
	sort.SliceStable(starters, func(i, j int) bool { return len(starters[i].word) > len(starters[j].word) })
	sections := []string{
		kw.Narrative, kw.AsA, kw.InOrderTo, kw.IWantTo,
		kw.GivenStories, kw.Scenario, kw.ExamplesTable,
	}

	var (
		current  *Step
		table    *Table
		lastKind = Unresolved
	)
	closeStep := func() {
		if current != nil {
			doc.Steps = append(doc.Steps, *current)
			current = nil
		}
	}
	closeTable := func() {
		if table != nil {
			doc.Tables = append(doc.Tables, *table)
			table = nil
		}
	}

	lineStart := 0
	for lineNumber := 0; lineStart <= len(text); lineNumber++ {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}
		line := strings.TrimSuffix(text[lineStart:lineEnd], "\r")
		content := strings.TrimLeft(line, " \t")
		indent := len(line) - len(content)
		contentStart := lineStart + indent
		contentEnd := lineStart + len(line)

		switch {
		case strings.TrimSpace(content) == "":
			closeStep()
			closeTable()

		case strings.HasPrefix(content, "|"):
			closeStep()
			if table == nil {
				table = &Table{}
			}
			table.Rows = append(table.Rows, Row{
				Line:   lineNumber,
				Start:  lineStart,
				End:    contentEnd,
				Indent: line[:indent],
				Cells:  splitRow(content),
			})

		case strings.HasPrefix(content, kw.Ignorable):
			closeStep()
			closeTable()

		default:
			closeTable()
			if word, kind, ok := matchStarter(content, starters); ok {
				closeStep()
				if kind == Unresolved {
					kind = lastKind
				} else {
					lastKind = kind
				}
				current = &Step{
					Kind:   kind,
					Prefix: word,
					Text:   strings.TrimSpace(content[len(word):]),
					Start:  contentStart,
					End:    contentEnd,
					Line:   lineNumber,
				}
				break
			}

			if section, ok := matchSection(content, sections); ok {
				closeStep()
				if section == kw.Scenario {
					lastKind = Unresolved
					doc.Scenarios = append(doc.Scenarios, Scenario{
						Title: strings.TrimSpace(content[len(section):]),
						Start: contentStart,
						End:   contentEnd,
						Line:  lineNumber,
					})
				}
				break
			}

			if current != nil {
				current.Text += "\n" + strings.TrimSpace(content)
				current.End = contentEnd
			}
		}

		lineStart = lineEnd + 1
	}
	closeStep()
	closeTable()

	return doc
}

type starter struct {
	word string
	kind Kind
}

func matchStarter(content string, starters []starter) (string, Kind, bool) {
	for _, s := range starters {
		if hasWord(content, s.word) {
			return s.word, s.kind, true
		}
	}
	return "", Unresolved, false
}

func matchSection(content string, sections []string) (string, bool) {
	for _, s := range sections {
		if strings.HasPrefix(content, s) {
			return s, true
		}
	}
	return "", false
}

// hasWord reports whether content starts with word as a whole word.
func hasWord(content, word string) bool {
	if word == "" || !strings.HasPrefix(content, word) {
		return false
	}
	rest := content[len(word):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func splitRow(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "|")
	content = strings.TrimSuffix(content, "|")
	cells := strings.Split(content, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// StepAt returns the step whose range contains offset, the end included.
func (d *Document) StepAt(offset int) *Step {
	for i := range d.Steps {
		if d.Steps[i].Start <= offset && offset <= d.Steps[i].End {
			return &d.Steps[i]
		}
	}
	return nil
}

// PrefixAt returns the text the user typed before offset and where it starts.
// Inside a step that is the step text from its keyword to offset, continuation
// lines included. Elsewhere it is the run of letters, digits and underscores
// ending at offset.
func PrefixAt(doc *Document, offset int) (string, int) {
	if offset > len(doc.Text) {
		offset = len(doc.Text)
	}
	if step := doc.StepAt(offset); step != nil {
		return doc.Text[step.Start:offset], step.Start
	}

	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(doc.Text[:start])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		start -= size
	}
	return doc.Text[start:offset], start
}
