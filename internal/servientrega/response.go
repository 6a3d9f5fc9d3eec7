package servientrega

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedResponse marks a carrier reply that is not well-formed XML.
var ErrMalformedResponse = errors.New("malformed carrier response")

// Extraction strategies, tried in order. The carrier answers with either
// namespace-qualified or bare element names depending on the operation.
var (
	guideNumberNames = []xml.Name{
		{Space: Namespace, Local: "Num_Guia"},
		{Local: "Num_Guia"},
		{Space: Namespace, Local: "NumeroGuia"},
		{Local: "NumeroGuia"},
	}
	errorMessageNames = []xml.Name{
		{Space: Namespace, Local: "string"},
		{Local: "string"},
	}
	labelDocumentNames = []xml.Name{
		{Space: Namespace, Local: "bytesReport"},
		{Local: "bytesReport"},
	}
)

// Interpret turns a guide-creation reply into a GuideOutcome. Only XML that
// cannot be parsed at all is an error.
func Interpret(raw string) (GuideOutcome, error) {
	root, err := parseTree(raw)
	if err != nil {
		return nil, err
	}

	if guide := root.firstText(guideNumberNames); guide != "" && guide != "0" {
		return GuideCreated{Number: guide}, nil
	}

	var messages []string
	for _, name := range errorMessageNames {
		for _, n := range root.findAll(name) {
			if n.text != "" {
				messages = append(messages, n.text)
			}
		}
	}
	if len(messages) == 0 {
		messages = []string{NoGuideNumber}
	}
	return GuideRejected{Messages: messages}, nil
}

type node struct {
	name     xml.Name
	text     string
	children []*node
}

func parseTree(raw string) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))

	var root *node
	var stack []*node
	var text [][]byte

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrMalformedResponse, err.Error())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
			text = append(text, nil)
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1] = append(text[len(text)-1], t...)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.text = strings.TrimSpace(string(text[len(text)-1]))
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if root == nil {
		return nil, errors.Wrap(ErrMalformedResponse, "empty document")
	}
	return root, nil
}

// find returns the first element named name, in document order.
func (n *node) find(name xml.Name) *node {
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *node) findAll(name xml.Name) []*node {
	var out []*node
	if n.name == name {
		out = append(out, n)
	}
	for _, c := range n.children {
		out = append(out, c.findAll(name)...)
	}
	return out
}

// firstText returns the text of the first strategy whose element exists with
// non-empty text.
func (n *node) firstText(names []xml.Name) string {
	for _, name := range names {
		if found := n.find(name); found != nil && found.text != "" {
			return found.text
		}
	}
	return ""
}
