package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
)

// Text renders reader HTML as plain text for a terminal.
//
// Images and videos become bracketed references.  Inputs show their
// placeholders, and multiple-choice widgets list their choices with
// the numbers to type.
func Text(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	extract(doc, &sb)

	s := multiSpace.ReplaceAllString(sb.String(), " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s), nil
}

func extract(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "p", "div":
			sb.WriteString("\n")
		case "br", "hr":
			sb.WriteString("\n")
		case "img":
			fmt.Fprintf(sb, "[image %s]", attr(n, "src"))
			return
		case "iframe":
			fmt.Fprintf(sb, "[video %s]", attr(n, "src"))
			return
		case "input":
			if p := attr(n, "placeholder"); p != "" {
				fmt.Fprintf(sb, "[%s]", p)
			}
			return
		}
		if js := attr(n, "data-choices"); js != "" {
			var choices []interface{}
			if err := json.Unmarshal([]byte(js), &choices); err == nil {
				for i, c := range choices {
					fmt.Fprintf(sb, "\n  %d) %v", i, c)
				}
				sb.WriteString("\n")
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extract(c, sb)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div":
			sb.WriteString("\n")
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
