package searchindex

import (
	"reflect"
	"testing"

	"github.com/hiro0218/kanren/internal/models"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and splits", "GitHub Copilot Tips", []string{"github", "copilot", "tips"}},
		{"trims edge punctuation", "hello, (world)!", []string{"hello", "world"}},
		{"keeps inner punctuation", "nginx-config v1.2", []string{"nginx-config", "v1.2"}},
		{"deduplicates", "go go GO", []string{"go"}},
		{"empty input", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	docs := []models.Document{
		{Slug: "post-1", Title: "WordPress Setup", Tags: []string{"WordPress", "PHP"}},
		{Slug: "post-2", Title: "WordPress Theming", Tags: []string{"WordPress"}},
	}

	index, records := Build(docs)

	if got := index["wordpress"]; !reflect.DeepEqual(got, []string{"post-1", "post-2"}) {
		t.Errorf("index[wordpress] = %v, want both slugs in corpus order", got)
	}
	if got := index["php"]; !reflect.DeepEqual(got, []string{"post-1"}) {
		t.Errorf("index[php] = %v, want [post-1]", got)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Slug != "post-1" || records[1].Slug != "post-2" {
		t.Error("records must preserve corpus order")
	}
	// Title token appears once even though the title and tag both contain it.
	want := []string{"wordpress", "setup", "php"}
	if !reflect.DeepEqual(records[0].Tokens, want) {
		t.Errorf("records[0].Tokens = %v, want %v", records[0].Tokens, want)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	docs := []models.Document{
		{Slug: "a", Title: "Alpha Beta", Tags: []string{"x"}},
		{Slug: "b", Title: "Beta Gamma", Tags: []string{"y"}},
	}

	index1, records1 := Build(docs)
	index2, records2 := Build(docs)

	if !reflect.DeepEqual(index1, index2) || !reflect.DeepEqual(records1, records2) {
		t.Error("Build must be deterministic for the same corpus")
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	index, records := Build(nil)
	if len(index) != 0 || len(records) != 0 {
		t.Errorf("empty corpus should yield empty index and records, got %d/%d", len(index), len(records))
	}
}
