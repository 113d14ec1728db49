package usecase

import (
	"encoding/json"
	"strings"

	"ContentPipeline/internal/domain"
)

// ParseDerivedMetadata decodes the synthesizer's structured output. The text
// is untrusted: it may arrive wrapped in a fenced code block, and it may not
// be valid JSON at all. Any parse failure yields an empty bundle; callers
// apply field-level defaults afterwards.
func ParseDerivedMetadata(raw string) domain.DerivedMetadata {
	var meta domain.DerivedMetadata
	if err := json.Unmarshal([]byte(stripFence(raw)), &meta); err != nil {
		return domain.DerivedMetadata{}
	}
	return meta
}

// ApplyMetadataDefaults fills policy defaults for absent fields. Only the
// category list has a non-zero default.
func ApplyMetadataDefaults(meta domain.DerivedMetadata, defaultCategory string) domain.DerivedMetadata {
	if len(meta.Categories) == 0 && defaultCategory != "" {
		meta.Categories = []string{defaultCategory}
	}
	return meta
}

// stripFence removes one leading/trailing ``` wrapper, tolerating a language
// tag on the opening fence.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimSpace(text)
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
