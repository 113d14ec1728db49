// Package markup converts the synthesizer's markdown-like article bodies to
// the HTML the CMS stores. The conversion is a small line/block parser: it
// recognizes headings, horizontal rules, and paragraph breaks, and renders
// bold/italic spans inline. Lines that already carry structural HTML pass
// through untouched, so converting converted content is safe.
package markup

import "strings"

// Kind discriminates parsed blocks.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindRule
	KindRaw
)

// Block is one structural unit of the article body.
type Block struct {
	Kind  Kind
	Level int    // heading level, 1-3
	Text  string // raw inline text (markdown spans still present)
}

// ToHTML converts an article body for post creation: the leading level-1
// heading is dropped (the post title is supplied separately), everything else
// renders to structural HTML.
func ToHTML(body string) string {
	blocks := Parse(body)
	if len(blocks) > 0 && blocks[0].Kind == KindHeading && blocks[0].Level == 1 {
		blocks = blocks[1:]
	}
	return Render(blocks)
}

// Parse tokenizes a markdown-like body into structural blocks. Paragraphs are
// separated by blank lines; single newlines inside a paragraph are soft.
func Parse(body string) []Block {
	var blocks []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, Block{Kind: KindParagraph, Text: strings.Join(paragraph, " ")})
			paragraph = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "### "):
			flush()
			blocks = append(blocks, Block{Kind: KindHeading, Level: 3, Text: strings.TrimSpace(trimmed[4:])})
		case strings.HasPrefix(trimmed, "## "):
			flush()
			blocks = append(blocks, Block{Kind: KindHeading, Level: 2, Text: strings.TrimSpace(trimmed[3:])})
		case strings.HasPrefix(trimmed, "# "):
			flush()
			blocks = append(blocks, Block{Kind: KindHeading, Level: 1, Text: strings.TrimSpace(trimmed[2:])})
		case isRule(trimmed):
			flush()
			blocks = append(blocks, Block{Kind: KindRule})
		case isStructuralHTML(trimmed):
			flush()
			blocks = append(blocks, Block{Kind: KindRaw, Text: trimmed})
		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flush()

	return blocks
}

// Render turns parsed blocks into HTML, one block per line.
func Render(blocks []Block) string {
	var out []string
	for _, block := range blocks {
		switch block.Kind {
		case KindHeading:
			tag := headingTag(block.Level)
			out = append(out, "<"+tag+">"+renderInline(block.Text)+"</"+tag+">")
		case KindRule:
			out = append(out, "<hr/>")
		case KindRaw:
			out = append(out, block.Text)
		case KindParagraph:
			out = append(out, "<p>"+renderInline(block.Text)+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

func headingTag(level int) string {
	switch level {
	case 1:
		return "h1"
	case 3:
		return "h3"
	default:
		return "h2"
	}
}

// isRule reports whether the line is a horizontal rule: three or more of the
// same marker character, optionally spaced.
func isRule(line string) bool {
	compact := strings.ReplaceAll(line, " ", "")
	if len(compact) < 3 {
		return false
	}
	marker := compact[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	for i := 1; i < len(compact); i++ {
		if compact[i] != marker {
			return false
		}
	}
	return true
}

// isStructuralHTML detects lines that already carry block-level markup from a
// previous conversion. They must not be re-wrapped in paragraph tags.
func isStructuralHTML(line string) bool {
	for _, prefix := range []string{"<h1", "<h2", "<h3", "<h4", "<h5", "<h6", "<hr", "<p>", "<p ", "</"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// renderInline escapes text and maps **bold** and *italic*/_italic_ spans to
// their HTML equivalents. Unbalanced markers are closed at end of block.
func renderInline(text string) string {
	var b strings.Builder
	var strongOpen, emOpen bool

	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], "**") {
			if strongOpen {
				b.WriteString("</strong>")
			} else {
				b.WriteString("<strong>")
			}
			strongOpen = !strongOpen
			i += 2
			continue
		}

		c := text[i]
		if c == '*' || c == '_' {
			if emOpen {
				b.WriteString("</em>")
			} else {
				b.WriteString("<em>")
			}
			emOpen = !emOpen
			i++
			continue
		}

		switch c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteByte(c)
		}
		i++
	}

	if emOpen {
		b.WriteString("</em>")
	}
	if strongOpen {
		b.WriteString("</strong>")
	}
	return b.String()
}
