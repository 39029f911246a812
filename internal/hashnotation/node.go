package hashnotation

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// DefaultTypes is used for blocks that declare no types.
var DefaultTypes = []string{"array"}

// Node is one level of a parsed hash. Children are keyed by variable name
// ("$foo") or by positional index ("0"), and keep insertion order.
type Node struct {
	Content string
	Types   []string

	keys     []string
	children map[string]*Node
}

func newNode(content string, types []string) *Node {
	if len(types) == 0 {
		types = DefaultTypes
	}
	return &Node{Content: content, Types: append([]string(nil), types...)}
}

// Keys returns the child keys in insertion order.
func (n *Node) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Child returns the child stored at key.
func (n *Node) Child(key string) (*Node, bool) {
	c, ok := n.children[key]
	return c, ok
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.keys)
}

// set stores c at key. An existing key keeps its position and is replaced.
func (n *Node) set(key string, c *Node) {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, ok := n.children[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.children[key] = c
}

func (n *Node) appendContent(text string) {
	if n.Content == "" {
		n.Content = text
		return
	}
	n.Content += " " + text
}

// MarshalJSON encodes the node as an object with "content" and "types"
// followed by the children in order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"content":`)
	if err := writeJSON(&buf, n.Content); err != nil {
		return nil, err
	}
	buf.WriteString(`,"types":`)
	if err := writeJSON(&buf, n.Types); err != nil {
		return nil, err
	}
	for _, k := range n.keys {
		buf.WriteByte(',')
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, n.children[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// MarshalYAML encodes the node as an ordered mapping.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode(), nil
}

func (n *Node) yamlNode() *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}

	types := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, t := range n.Types {
		types.Content = append(types.Content, scalar(t))
	}
	m.Content = append(m.Content,
		scalar("content"), scalar(n.Content),
		scalar("types"), types,
	)
	for _, k := range n.keys {
		m.Content = append(m.Content, scalar(k), n.children[k].yamlNode())
	}
	return m
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
