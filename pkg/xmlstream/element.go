package xmlstream

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is a parsed XML element tree. Lookups never fail: Find returns an
// empty placeholder when the child is absent, so chains like
// elem.Find("Excesses").Find("ExcessPerPerson").Text() need no nil checks.
type Element struct {
	Tag      string
	attrs    map[string]string
	children []*Element
	text     string
}

// Parse decodes a single XML fragment into an Element tree. The root element
// is returned; leading processing instructions and whitespace are skipped.
func Parse(raw []byte) (*Element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("xmlstream: no element found in fragment")
		}
		if err != nil {
			return nil, fmt.Errorf("xmlstream: parsing fragment: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(decoder, start)
		}
	}
}

func parseElement(decoder *xml.Decoder, start xml.StartElement) (*Element, error) {
	elem := &Element{Tag: start.Name.Local}
	if len(start.Attr) > 0 {
		elem.attrs = make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			elem.attrs[attr.Name.Local] = attr.Value
		}
	}

	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("xmlstream: parsing <%s>: %w", elem.Tag, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(decoder, t)
			if err != nil {
				return nil, err
			}
			elem.children = append(elem.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(elem.children) == 0 {
				elem.text = strings.TrimSpace(text.String())
			}
			return elem, nil
		}
	}
}

// Find returns the first direct child with the given tag, or an empty
// placeholder element if none exists.
func (e *Element) Find(tag string) *Element {
	for _, child := range e.children {
		if child.Tag == tag {
			return child
		}
	}
	return &Element{Tag: tag}
}

// FindAll returns all direct children with the given tag, in document order.
func (e *Element) FindAll(tag string) []*Element {
	var result []*Element
	for _, child := range e.children {
		if child.Tag == tag {
			result = append(result, child)
		}
	}
	return result
}

// Children returns all direct child elements in document order.
func (e *Element) Children() []*Element {
	return e.children
}

// Text returns the element's text content, or "" for non-text elements.
func (e *Element) Text() string {
	return e.text
}

// Attr returns the named attribute value, or "" if absent.
func (e *Element) Attr(name string) string {
	return e.attrs[name]
}

// Attributes returns the element's attributes. The map is never nil.
func (e *Element) Attributes() map[string]string {
	if e.attrs == nil {
		return map[string]string{}
	}
	return e.attrs
}
