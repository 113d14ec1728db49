package usecase

import (
	"reflect"
	"testing"

	"ContentPipeline/internal/domain"
)

func TestParseDerivedMetadata(t *testing.T) {
	t.Parallel()

	raw := `{"tags":["ginger","nausea"],"excerpt":"A short summary.","seo_keyword":"ginger tea","categories":["Herbal Teas"]}`

	meta := ParseDerivedMetadata(raw)

	if !reflect.DeepEqual(meta.Tags, []string{"ginger", "nausea"}) {
		t.Fatalf("unexpected tags: %v", meta.Tags)
	}
	if meta.Excerpt != "A short summary." {
		t.Fatalf("unexpected excerpt: %q", meta.Excerpt)
	}
	if meta.SEOKeyword != "ginger tea" {
		t.Fatalf("unexpected keyword: %q", meta.SEOKeyword)
	}
	if !reflect.DeepEqual(meta.Categories, []string{"Herbal Teas"}) {
		t.Fatalf("unexpected categories: %v", meta.Categories)
	}
}

func TestParseDerivedMetadataFenced(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"excerpt\":\"Fenced.\",\"tags\":[\"a\"]}\n```"

	meta := ParseDerivedMetadata(raw)

	if meta.Excerpt != "Fenced." {
		t.Fatalf("fence not stripped, excerpt: %q", meta.Excerpt)
	}
	if len(meta.Tags) != 1 || meta.Tags[0] != "a" {
		t.Fatalf("unexpected tags: %v", meta.Tags)
	}
}

func TestParseDerivedMetadataMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"not json at all",
		"```\nstill not json\n```",
		"",
		"[1, 2, 3]",
	} {
		meta := ParseDerivedMetadata(raw)
		if !reflect.DeepEqual(meta, domain.DerivedMetadata{}) {
			t.Fatalf("expected empty bundle for %q, got %+v", raw, meta)
		}
	}
}

func TestApplyMetadataDefaults(t *testing.T) {
	t.Parallel()

	meta := ApplyMetadataDefaults(domain.DerivedMetadata{}, "Natural Remedies")
	if !reflect.DeepEqual(meta.Categories, []string{"Natural Remedies"}) {
		t.Fatalf("default category not applied: %v", meta.Categories)
	}

	meta = ApplyMetadataDefaults(domain.DerivedMetadata{Categories: []string{"Herbal Teas"}}, "Natural Remedies")
	if !reflect.DeepEqual(meta.Categories, []string{"Herbal Teas"}) {
		t.Fatalf("existing categories overwritten: %v", meta.Categories)
	}
}
