package ingest

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Broker report XML uses long namespaced report-builder tags, so lookups
// match by tag substring rather than exact name.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
}

func parseTree(content []byte) (*node, error) {
	root := &node{}
	if err := xml.Unmarshal(content, root); err != nil {
		return nil, fmt.Errorf("failed to parse report xml: %w", err)
	}
	return root, nil
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(tag string) (*node, error) {
	for i := range n.Nodes {
		if strings.Contains(n.Nodes[i].XMLName.Local, tag) {
			return &n.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("element %q not found under %q", tag, n.XMLName.Local)
}

func (n *node) path(tags ...string) (*node, error) {
	cur := n
	for _, tag := range tags {
		next, err := cur.child(tag)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
