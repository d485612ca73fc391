package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("edgar13f/lib/htmlutil")

// GetText concatenates every text node below node in document order.
func GetText(node *html.Node) string {
	var out strings.Builder
	writeText(node, &out)
	return out.String()
}

func writeText(node *html.Node, out *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		out.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, out)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanText turns non-breaking spaces into spaces, drops other non-printable
// runes and collapses every run of whitespace into a single space.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\u00a0':
			return ' '
		case unicode.IsSpace(r):
			return r
		case !unicode.IsPrint(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// SelectionText is the cleaned text of every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var out strings.Builder
	for _, n := range sel.Nodes {
		writeText(n, &out)
	}
	return CleanText(out.String())
}

type Anchor struct {
	Name string
	Href string
}

func href(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "href" {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// GetAnchors returns the text and href of every anchor in the selection.
// Anchors without an href are skipped, when base is not nil the hrefs are
// resolved against it.
func GetAnchors(ctx context.Context, base *url.URL, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	var anchors []Anchor
	for _, n := range sel.Nodes {
		raw := href(n)
		if raw == "" {
			continue
		}
		link, err := url.Parse(raw)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse anchor href")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		anchor := Anchor{Name: CleanText(GetText(n)), Href: link.String()}
		anchors = append(anchors, anchor)
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", anchor.Name),
			attribute.String("url", anchor.Href),
		))
	}
	return anchors
}
