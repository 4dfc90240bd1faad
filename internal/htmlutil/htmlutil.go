// Package htmlutil provides tolerant HTML fragment parsing and element counting.
package htmlutil

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements never hold content, so their start tags are not left open.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"menuitem": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true, "basefont": true, "bgsound": true,
	"command": true, "frame": true, "image": true, "isindex": true,
	"nextid": true, "spacer": true,
}

// LoadFragment parses an HTML fragment into a goquery Document.
//
// The tree is built from the token stream as written: every start tag
// becomes exactly one element, nothing is implied (no html, head, body or
// tbody) and no tag is renamed. An end tag closes the nearest open element
// of the same name and is ignored when there is none. Only script and style
// contents are raw text. Malformed input never fails.
func LoadFragment(fragment string) *goquery.Document {
	root := &html.Node{Type: html.DocumentNode}
	open := []*html.Node{root}
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return goquery.NewDocumentFromNode(root)
		case html.TextToken:
			open[len(open)-1].AppendChild(&html.Node{Type: html.TextNode, Data: string(z.Text())})
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			n := &html.Node{Type: html.ElementNode, Data: tok.Data, DataAtom: tok.DataAtom, Attr: tok.Attr}
			open[len(open)-1].AppendChild(n)
			if tt == html.SelfClosingTagToken || voidElements[tok.Data] {
				continue
			}
			open = append(open, n)
			if tok.DataAtom != atom.Script && tok.DataAtom != atom.Style {
				z.NextIsNotRawText()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(open) - 1; i > 0; i-- {
				if open[i].Data == string(name) {
					open = open[:i]
					break
				}
			}
		}
	}
}

// CountTags returns the number of elements whose tag name is one of tags.
// Each element is counted once even if it matches several names.
func CountTags(doc *goquery.Document, tags ...string) int {
	if len(tags) == 0 {
		return 0
	}
	return doc.Find(strings.Join(tags, ", ")).Length()
}

// HasElement reports whether any element matches the selector.
func HasElement(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

// MeanTextLength returns the mean text length, in characters, across all
// elements of the document. It returns 0 for a document without elements.
func MeanTextLength(doc *goquery.Document) float64 {
	elems := doc.Find("*")
	if elems.Length() == 0 {
		return 0
	}
	total := 0
	elems.Each(func(_ int, s *goquery.Selection) {
		total += TextLength(s.Get(0))
	})
	return float64(total) / float64(elems.Length())
}

// TextLength returns the number of characters of text under n.
//
// Text nested inside <script>, <style> or <template> descendants is not
// counted, but the contents of n itself are when n is one of those.
// Comments are never counted.
func TextLength(n *html.Node) int {
	if n == nil {
		return 0
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			total += utf8.RuneCountInString(c.Data)
		case html.ElementNode:
			if isRawText(c) {
				continue
			}
			total += TextLength(c)
		}
	}
	return total
}

func isRawText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Template:
		return true
	}
	return false
}
