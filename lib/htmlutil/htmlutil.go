package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText returns the visible text of a selection with non-printable
// characters dropped and runs of whitespace collapsed, the form cell and
// card contents are compared and displayed in.
func CleanText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		buffer.WriteString(GetText(node))
	}
	text := innerWhitespace.ReplaceAllString(buffer.String(), " ")
	text = removeNonPrintable(text)
	return strings.Trim(text, " \t")
}

// FirstMatch tries each candidate selector in order against the document
// and returns the first non-empty selection. Portal markup varies between
// deployments and releases, so callers pass every layout they have seen
// rather than betting on one.
func FirstMatch(doc *goquery.Selection, candidates []string) (*goquery.Selection, bool) {
	for _, selector := range candidates {
		sel := doc.Find(selector)
		if len(sel.Nodes) > 0 {
			return sel, true
		}
	}
	return nil, false
}
