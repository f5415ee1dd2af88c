// Package loader builds template hosts from a project directory.
// Each configured collection directory becomes a view collection, generic
// collection or list; every matching file becomes an item with optional
// YAML frontmatter.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Frontmatter represents parsed YAML frontmatter.
// Fields other than key, layout and tags are collected in Data.
type Frontmatter struct {
	Key    string         `mapstructure:"key"`
	Layout string         `mapstructure:"layout"`
	Tags   []string       `mapstructure:"tags"`
	Data   map[string]any `mapstructure:",remain"`
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Frontmatter *Frontmatter
	Body        string // content after frontmatter
	HasYAML     bool   // whether frontmatter was found
}

// frontmatterPattern matches a leading --- ... --- block
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*---[ \t]*\r?\n(.*?)\r?\n?---[ \t]*(?:\r?\n|$)`)

// ExtractFrontmatter extracts YAML frontmatter from file content.
// Returns the parsed frontmatter, remaining body, and any error.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Frontmatter: &Frontmatter{Data: make(map[string]any)},
		Body:        content,
	}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		// No frontmatter found, return content as-is
		return result, nil
	}

	result.HasYAML = true
	yamlContent := content[loc[2]:loc[3]]
	result.Body = strings.TrimLeft(content[loc[1]:], "\r\n")

	fm, err := parseFrontmatterYAML(yamlContent)
	if err != nil {
		return nil, err
	}
	result.Frontmatter = fm
	return result, nil
}

// parseFrontmatterYAML decodes YAML into a map, then into Frontmatter.
func parseFrontmatterYAML(yamlContent string) (*Frontmatter, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	fm := &Frontmatter{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           fm,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to decode frontmatter: %v", err),
		}
	}
	if fm.Data == nil {
		fm.Data = make(map[string]any)
	}
	return fm, nil
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
