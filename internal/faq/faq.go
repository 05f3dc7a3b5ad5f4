// Package faq answers storefront questions from a static FAQ table and a
// list of keyword intents.
package faq

import (
	_ "embed"
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultTable []byte

// ErrEmptyMessage is returned by Reply for blank input.
var ErrEmptyMessage = errors.New("faq: empty message")

// minContainLen is the shortest message matched by substring against FAQ
// text; shorter input only matches intents.
const minContainLen = 4

type Entry struct {
	ID       string `yaml:"id" json:"id"`
	Category string `yaml:"category" json:"category"`
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type Intent struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Reply    string   `yaml:"reply" json:"reply"`
}

type Table struct {
	Welcome  string   `yaml:"welcome" json:"welcome"`
	FollowUp string   `yaml:"follow_up" json:"followUp"`
	Fallback string   `yaml:"fallback" json:"fallback"`
	FAQs     []Entry  `yaml:"faqs" json:"faqs"`
	Intents  []Intent `yaml:"intents" json:"intents"`
}

// Parse decodes a YAML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "parse faq table")
	}
	if strings.TrimSpace(t.Fallback) == "" {
		return nil, errors.New("faq table: fallback reply is required")
	}
	return &t, nil
}

// Load reads the table at path, or the built-in table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(defaultTable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read faq table %s", path)
	}
	return Parse(data)
}

// Categories lists FAQ categories in first-seen order.
func (t *Table) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range t.FAQs {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// ByCategory returns the entries in category, or all entries when category
// is empty.
func (t *Table) ByCategory(category string) []Entry {
	if category == "" {
		return append([]Entry(nil), t.FAQs...)
	}
	out := []Entry{}
	for _, e := range t.FAQs {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// Source tells which rule produced a reply.
type Source string

const (
	SourceFAQ      Source = "faq"
	SourceIntent   Source = "intent"
	SourceFallback Source = "fallback"
)

type Reply struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
	// Ref is the FAQ id or intent name that matched.
	Ref string `json:"ref,omitempty"`
}

type Bot struct {
	table *Table
}

func NewBot(t *Table) *Bot {
	return &Bot{table: t}
}

func (b *Bot) Table() *Table { return b.table }

// Reply answers message: first a matching FAQ entry, then the first intent
// with a matching keyword, then the fallback.
func (b *Bot) Reply(message string) (Reply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Reply{}, ErrEmptyMessage
	}
	if e, ok := b.matchFAQ(msg); ok {
		text := e.Answer
		if b.table.FollowUp != "" {
			text += "\n\n" + b.table.FollowUp
		}
		return Reply{Text: text, Source: SourceFAQ, Ref: e.ID}, nil
	}
	words := tokenize(msg)
	for _, in := range b.table.Intents {
		if matchesIntent(msg, words, in) {
			return Reply{Text: in.Reply, Source: SourceIntent, Ref: in.Name}, nil
		}
	}
	return Reply{Text: b.table.Fallback, Source: SourceFallback}, nil
}

func (b *Bot) matchFAQ(msg string) (Entry, bool) {
	for _, e := range b.table.FAQs {
		q := strings.ToLower(e.Question)
		if lead := leadingWords(q, 3); lead != "" && strings.Contains(msg, lead) {
			return e, true
		}
		if len(msg) < minContainLen {
			continue
		}
		if strings.Contains(q, msg) || strings.Contains(strings.ToLower(e.Answer), msg) {
			return e, true
		}
	}
	return Entry{}, false
}

func leadingWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) < n {
		return ""
	}
	return strings.Join(fields[:n], " ")
}

func tokenize(s string) map[string]bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// matchesIntent matches single-word keywords as whole words and phrases as
// substrings.
func matchesIntent(msg string, words map[string]bool, in Intent) bool {
	for _, kw := range in.Keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(kw, " ") {
			if strings.Contains(msg, kw) {
				return true
			}
			continue
		}
		if words[kw] {
			return true
		}
	}
	return false
}
