package extractor

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/textcrawl/internal/model"
)

// skippedElements are never part of the visible text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Head:     true,
}

// blockElements break the text flow. Inline elements such as <b> or <span>
// join their text to the neighbouring words, so "<b>Net</b>flix" stays
// one word.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Br: true, atom.Dd: true,
	atom.Details: true, atom.Dialog: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true,
	atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.Ul: true, atom.Option: true, atom.Caption: true,
}

// Input is a fetched document to extract.
type Input struct {
	// Body is the raw response body.
	Body []byte
	// ContentType is the Content-Type header; may be empty.
	ContentType string
	// BaseURL is the absolute URL the body was served from.
	BaseURL string
	// Truncated is true when the body was cut at the fetch size limit.
	Truncated bool
}

// Result is the extracted content of one document.
type Result struct {
	// Title is the trimmed <title> text.
	Title string
	// Text is the visible body text with whitespace collapsed.
	Text string
	// Links are normalized absolute http(s) URLs in document order,
	// without duplicates.
	Links []string
}

// Extractor parses HTML documents. The zero value is ready to use and it
// is safe for concurrent use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses in and returns its text and links.
// Non-HTML bodies yield a *ParseError of kind NotHTML and truncated
// bodies a *ParseError of kind Truncated.
func (e *Extractor) Extract(in Input) (*Result, error) {
	if in.Truncated {
		return nil, &ParseError{Kind: KindTruncated, Detail: fmt.Sprintf("%d bytes read", len(in.Body))}
	}
	if ok, detail := isHTML(in.ContentType, in.Body); !ok {
		return nil, &ParseError{Kind: KindNotHTML, Detail: detail}
	}

	base, err := url.Parse(in.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: base URL %q", model.ErrInvalidURL, in.BaseURL)
	}

	r, err := charset.NewReader(bytes.NewReader(in.Body), in.ContentType)
	if err != nil {
		return nil, &ParseError{Kind: KindNotHTML, Detail: "unknown charset", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Kind: KindNotHTML, Err: err}
	}

	return &Result{
		Title: collapseSpace(doc.Find("title").First().Text()),
		Text:  visibleText(doc),
		Links: links(doc, documentBase(doc, base)),
	}, nil
}

// isHTML decides from the content type, or by sniffing when there is none.
// The second return value describes a rejected body.
func isHTML(contentType string, body []byte) (bool, string) {
	if bytes.IndexByte(body, 0) >= 0 {
		return false, "binary content"
	}

	ct := contentType
	if strings.TrimSpace(ct) == "" {
		ct = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true, ""
	default:
		return false, mediaType
	}
}

// visibleText walks the nodes under <body> and concatenates their text.
// A space is inserted only where a block element starts or ends.
func visibleText(doc *goquery.Document) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		block := false
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			block = blockElements[n.DataAtom]
		case html.TextNode:
			b.WriteString(n.Data)
		}
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}

	for _, body := range doc.Find("body").Nodes {
		walk(body)
	}
	return collapseSpace(b.String())
}

// documentBase applies <base href> when it resolves to an http(s) URL.
func documentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	resolved := pageURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return pageURL
	}
	return resolved
}

// links collects a[href] and area[href] targets. Hrefs that do not resolve
// to an http(s) URL are dropped.
func links(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)

	doc.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs, err := model.ResolveURL(base, href)
		if err != nil {
			return
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
