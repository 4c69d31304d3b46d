package hocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// ParseHOCR converts raw hOCR data into a structured HOCR object.
func ParseHOCR(data []byte) (HOCR, error) {
	var result HOCR
	result.Metadata = make(map[string]string)

	// Figure out the character encoding; generated documents are UTF-8 but
	// hOCR from other producers is frequently latin-1.
	decoded := data
	if enc := sniffCharset(string(data)); enc != "" && enc != "utf-8" {
		var err error
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return result, fmt.Errorf("failed to decode %s: %w", enc, err)
		}
	}

	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return result, err
	}

	extractDocumentMeta(&result, doc)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			result.Pages = append(result.Pages, parsePage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in HOCR data")
	}
	return result, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns a structured BoundingBox object or nil if extraction fails
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	props := ParseTitle(title)
	if bbox, ok := props["bbox"]; ok && len(bbox) >= 4 {
		x1, _ := strconv.ParseFloat(bbox[0], 64)
		y1, _ := strconv.ParseFloat(bbox[1], 64)
		x2, _ := strconv.ParseFloat(bbox[2], 64)
		y2, _ := strconv.ParseFloat(bbox[3], 64)
		result := NewBoundingBox(x1, y1, x2, y2)
		return &result
	}
	return nil
}

func sniffCharset(content string) string {
	i := strings.Index(content, "charset=")
	if i < 0 {
		return ""
	}
	rest := content[i+len("charset="):]
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' '
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func parsePage(n *html.Node) Page {
	page := Page{
		ID:       attr(n, "id"),
		Title:    attr(n, "title"),
		Lang:     attr(n, "lang"),
		Metadata: make(map[string]string),
	}

	props := ParseTitle(page.Title)
	if bbox := ParseBoundingBoxFromTitle(page.Title); bbox != nil {
		page.BBox = *bbox
	}
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(image[0], `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		page.PageNumber, _ = strconv.Atoi(ppageno[0])
	}

	var findLines func(*html.Node)
	findLines = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocr_line") {
			page.Lines = append(page.Lines, parseLine(c))
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			findLines(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findLines(c)
	}
	return page
}

func parseLine(n *html.Node) Line {
	line := Line{
		ID:       attr(n, "id"),
		Lang:     attr(n, "lang"),
		Metadata: make(map[string]string),
	}
	if bbox := ParseBoundingBoxFromTitle(attr(n, "title")); bbox != nil {
		line.BBox = *bbox
	}

	var findWords func(*html.Node)
	findWords = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			line.Words = append(line.Words, parseWord(c))
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			findWords(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findWords(c)
	}
	return line
}

func parseWord(n *html.Node) Word {
	word := Word{
		ID:   attr(n, "id"),
		Lang: attr(n, "lang"),
		Text: strings.TrimSpace(textContent(n)),
	}
	title := attr(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	if wconf, ok := ParseTitle(title)["x_wconf"]; ok && len(wconf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(wconf[0], 64)
	}
	return word
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				result.Title = strings.TrimSpace(textContent(n))
			case "meta":
				if name := attr(n, "name"); name != "" {
					result.Metadata[name] = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
