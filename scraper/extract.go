package scraper

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/propsearch/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractTable converts a table's outer HTML into rows of cell text. It is
// the fallback for when the page cannot lay the table out itself.
//
// Rows are visited in document order. Each row yields its header cells
// followed by its data cells. Cell text approximates innerText: <br> breaks
// the line, whitespace runs collapse to one space, and hidden nodes are
// skipped. Rows without any cells are dropped.
func ExtractTable(tableHTML string) models.TableRows {
	rows := models.TableRows{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return rows
	}

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th").Each(func(_ int, th *goquery.Selection) {
			cells = append(cells, renderedText(th.Nodes[0]))
		})
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, renderedText(td.Nodes[0]))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return rows
}

// renderedText flattens n the way a browser renders it in a table cell.
func renderedText(n *html.Node) string {
	lines := []string{""}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				lines[len(lines)-1] += c.Data
			case html.ElementNode:
				switch {
				case c.DataAtom == atom.Br:
					lines = append(lines, "")
				case isHidden(c):
					// not rendered
				default:
					walk(c)
				}
			}
		}
	}
	walk(n)

	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isHidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Template, atom.Noscript:
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// readTable prefers the page's own rendering of the table and falls back to
// parsing its HTML. A table that cannot be read at all yields no rows.
func readTable(ctx context.Context, log *slog.Logger, table Element) models.TableRows {
	rows, err := table.TableRows(ctx)
	if err == nil {
		return models.TableRows(rows)
	}
	log.Debug("extract: in-page table read failed, parsing HTML", "error", err)

	tableHTML, err := table.HTML(ctx)
	if err != nil {
		log.Warn("extract: reading results table failed", "error", err)
		return models.TableRows{}
	}
	return ExtractTable(tableHTML)
}

// ExtractText returns the container's rendered text.
func ExtractText(ctx context.Context, container Element) (string, error) {
	return container.Text(ctx)
}

// CaptureImage screenshots el as a base64 PNG. It scrolls the element into
// view and waits settle first so layout and animations finish. Any failure
// is logged and yields nil; a missing image never fails a search.
func CaptureImage(ctx context.Context, el Element, settle time.Duration) *string {
	if err := el.ScrollIntoView(ctx); err != nil {
		slog.Warn("capture: scroll into view failed", "error", err)
		return nil
	}
	if err := sleep(ctx, settle); err != nil {
		slog.Warn("capture: interrupted while settling", "error", err)
		return nil
	}

	png, err := el.Screenshot(ctx)
	if err != nil {
		slog.Warn("capture: element screenshot failed", "error", err)
		return nil
	}
	if len(png) == 0 {
		slog.Warn("capture: element screenshot was empty")
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(png)
	return &encoded
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
