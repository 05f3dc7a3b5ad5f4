package faq

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func defaultBot(t *testing.T) *Bot {
	t.Helper()
	table, err := Load("")
	if err != nil {
		t.Fatalf("load default table: %v", err)
	}
	return NewBot(table)
}

func TestDefaultTable(t *testing.T) {
	bot := defaultBot(t)
	table := bot.Table()
	if len(table.FAQs) != 17 {
		t.Fatalf("expected 17 faqs, got %d", len(table.FAQs))
	}
	want := []string{"general", "shipping", "returns", "sizing", "payment", "account"}
	got := table.Categories()
	if len(got) != len(want) {
		t.Fatalf("expected categories %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected categories %v, got %v", want, got)
		}
	}
	if n := len(table.ByCategory("SHIPPING")); n != 3 {
		t.Fatalf("expected 3 shipping faqs, got %d", n)
	}
}

func TestReply(t *testing.T) {
	bot := defaultBot(t)
	cases := []struct {
		msg    string
		source Source
		ref    string
	}{
		{"Do you ship internationally?", SourceFAQ, "5"},
		{"what is your return policy for sale items", SourceFAQ, "7"},
		{"authenticity certificate", SourceFAQ, "2"},
		{"hi", SourceIntent, "greeting"},
		{"shipping to Lagos", SourceIntent, "shipping"},
		{"I need a refund", SourceIntent, "returns"},
		{"show me something for men", SourceIntent, "men"},
		{"women", SourceIntent, "women"},
		{"zzz", SourceFallback, ""},
	}
	for _, tc := range cases {
		got, err := bot.Reply(tc.msg)
		if err != nil {
			t.Fatalf("%q: %v", tc.msg, err)
		}
		if got.Source != tc.source || got.Ref != tc.ref {
			t.Fatalf("%q: expected %s/%s, got %s/%s", tc.msg, tc.source, tc.ref, got.Source, got.Ref)
		}
		if got.Text == "" {
			t.Fatalf("%q: empty reply text", tc.msg)
		}
	}
}

func TestReply_EmptyMessage(t *testing.T) {
	if _, err := defaultBot(t).Reply("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	data := []byte("fallback: ask a stylist\nintents:\n  - name: hours\n    keywords: [open]\n    reply: 9 to 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, _ := NewBot(table).Reply("when are you open")
	if got.Text != "9 to 5" {
		t.Fatalf("unexpected reply %+v", got)
	}

	if _, err := Parse([]byte("faqs: []\n")); err == nil {
		t.Fatalf("expected error for table without fallback")
	}
}
