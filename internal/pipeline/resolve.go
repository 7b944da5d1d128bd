package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-photocal/internal/assets"
)

// ErrUnresolvedReference marks a document that references files found in
// no search root.
var ErrUnresolvedReference = errors.New("unresolved reference")

// Resolver maps a relative reference to an absolute file path.
// *assets.SearchPath implements it.
type Resolver interface {
	Resolve(ref string) (string, error)
}

// UnresolvedError lists every reference that could not be resolved, in
// document order. Refs hold the references as written, never resolved paths.
type UnresolvedError struct {
	Refs []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedReference, strings.Join(quoteAll(e.Refs), ", "))
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolvedReference }

// ResolveReferences rewrites relative references to absolute file:// URLs.
//
// Rewrites:
//   - img[src]
//   - link[href]
//
// Leaves URLs, data URIs, anchors and absolute paths untouched.
// References that resolve nowhere (or escape their root) are collected into
// an *UnresolvedError; other resolver failures abort immediately.
func ResolveReferences(htmlContent string, r Resolver) (string, error) {
	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	rw := &rewriter{resolver: r}
	rw.walk(doc)
	if rw.err != nil {
		return "", rw.err
	}
	if len(rw.missing) > 0 {
		return "", &UnresolvedError{Refs: rw.missing}
	}

	return renderHTML(doc, isFragment)
}

type rewriter struct {
	resolver Resolver
	missing  []string
	err      error
}

func (rw *rewriter) walk(n *html.Node) {
	if rw.err != nil {
		return
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rw.rewriteAttr(n, "src")
		case atom.Link:
			rw.rewriteAttr(n, "href")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rw.walk(c)
	}
}

func (rw *rewriter) rewriteAttr(n *html.Node, attrName string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}

		// html/template percent-encodes URL attributes ("my photo" -> "my%20photo").
		ref, err := url.PathUnescape(attr.Val)
		if err != nil {
			rw.missing = append(rw.missing, attr.Val)
			continue
		}

		absPath, err := rw.resolver.Resolve(ref)
		switch {
		case err == nil:
			n.Attr[i].Val = pathToFileURL(absPath)
		case errors.Is(err, assets.ErrReferenceNotFound), errors.Is(err, assets.ErrPathTraversal):
			rw.missing = append(rw.missing, ref)
		default:
			rw.err = fmt.Errorf("resolving %q: %w", ref, err)
			return
		}
	}
}

// parseHTML parses HTML content, handling both full documents and fragments.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isRelativePath returns true if the path should be resolved.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "data:") ||
		strings.HasPrefix(path, "//") {
		return false
	}

	if strings.HasPrefix(path, "#") {
		return false
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}

	return true
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}

func quoteAll(refs []string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = fmt.Sprintf("%q", r)
	}
	return out
}
