package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, fragment string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCleanText(t *testing.T) {
	doc := parse(t, `<div>  Pre   Algebra
	(Period 3)  </div>`)
	require.Equal(t, "Pre Algebra (Period 3)", CleanText(doc.Find("div")))
}

func TestFirstMatch(t *testing.T) {
	doc := parse(t, `<section><ul class="cards"><li class="card">a</li></ul></section>`)

	{
		sel, ok := FirstMatch(doc.Selection, []string{"table", "[role='table']", ".card"})
		require.True(t, ok)
		require.Equal(t, 1, len(sel.Nodes))
		require.Equal(t, "a", sel.Text())
	}
	{
		_, ok := FirstMatch(doc.Selection, []string{"table", "[role='table']"})
		require.False(t, ok)
	}
}
