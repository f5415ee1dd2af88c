package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantYAML   bool
		wantBody   string
		wantKey    string
		wantLayout string
		wantTags   []string
		wantData   map[string]any
	}{
		{
			name:     "no frontmatter",
			content:  "# Hello\n\nbody",
			wantYAML: false,
			wantBody: "# Hello\n\nbody",
			wantData: map[string]any{},
		},
		{
			name: "full frontmatter",
			content: `---
key: home
layout: default
tags: [intro, docs]
title: Home page
order: 1
---
# Welcome`,
			wantYAML:   true,
			wantBody:   "# Welcome",
			wantKey:    "home",
			wantLayout: "default",
			wantTags:   []string{"intro", "docs"},
			wantData:   map[string]any{"title": "Home page", "order": 1},
		},
		{
			name:     "empty frontmatter",
			content:  "---\n---\nbody",
			wantYAML: true,
			wantBody: "body",
			wantData: map[string]any{},
		},
		{
			name:     "leading whitespace",
			content:  "\n\n---\ntitle: x\n---\n\nbody",
			wantYAML: true,
			wantBody: "body",
			wantData: map[string]any{"title": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractFrontmatter(tt.content)
			require.NoError(t, err)

			assert.Equal(t, tt.wantYAML, result.HasYAML, "HasYAML")
			assert.Equal(t, tt.wantBody, result.Body, "Body")
			assert.Equal(t, tt.wantKey, result.Frontmatter.Key, "Key")
			assert.Equal(t, tt.wantLayout, result.Frontmatter.Layout, "Layout")
			assert.Equal(t, tt.wantTags, result.Frontmatter.Tags, "Tags")
			assert.Equal(t, tt.wantData, result.Frontmatter.Data, "Data")
		})
	}
}

func TestExtractFrontmatter_InvalidYAML(t *testing.T) {
	_, err := ExtractFrontmatter("---\ntitle: [unclosed\n---\nbody")
	require.Error(t, err)

	var fpe *FrontmatterParseError
	require.ErrorAs(t, err, &fpe)
	assert.Contains(t, fpe.Message, "invalid YAML")
}

func TestExtractFrontmatter_WrongFieldType(t *testing.T) {
	_, err := ExtractFrontmatter("---\ntags:\n  nested: map\n---\nbody")

	var fpe *FrontmatterParseError
	require.ErrorAs(t, err, &fpe)
	assert.Contains(t, fpe.Message, "failed to decode frontmatter")
}

func TestFrontmatterParseError(t *testing.T) {
	err := &FrontmatterParseError{File: "about.md", Message: "invalid YAML"}
	assert.Equal(t, "about.md: invalid YAML", err.Error())

	err = &FrontmatterParseError{Message: "invalid YAML"}
	assert.Equal(t, "invalid YAML", err.Error())
}
