package starlark

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"golang.org/x/net/html"
)

// htmlModule is the predeclared "html" namespace:
//
//	html.to_markdown(src)  converts an HTML fragment to markdown
//	html.text(src)         returns the text content with whitespace collapsed
//	html.headings(src, tag="h1") lists the text of every matching heading
var htmlModule = &starlarkstruct.Module{
	Name: "html",
	Members: starlark.StringDict{
		"to_markdown": starlark.NewBuiltin("html.to_markdown", htmlToMarkdown),
		"text":        starlark.NewBuiltin("html.text", htmlText),
		"headings":    starlark.NewBuiltin("html.headings", htmlHeadings),
	},
}

func htmlToMarkdown(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src); err != nil {
		return nil, err
	}
	md, err := htmltomarkdown.ConvertString(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.String(md), nil
}

func htmlText(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src); err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.String(textContent(doc)), nil
}

func htmlHeadings(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src string
	tag := "h1"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src, "tag?", &tag); err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	var headings []starlark.Value
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			headings = append(headings, starlark.String(textContent(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	return starlark.NewList(headings), nil
}

// textContent concatenates the text nodes below n, skipping script and
// style elements.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
