package xmldom

import (
	"fmt"
	"strings"
)

// AbsolutePath computes a deterministic, unique-within-document XPath to
// node using indexed step notation, e.g. /root[1]/Item[2]/@quantity. It walks
// parent links to the document root, so the result is stable regardless of
// which context node an evaluation started from.
func AbsolutePath(n Node) string {
	if n == nil {
		return ""
	}

	if n.NodeType() == ATTRIBUTE_NODE {
		owner := attrOwnerElement(n)
		if owner == nil {
			return "@" + string(n.NodeName())
		}
		return AbsolutePath(owner) + "/@" + string(n.NodeName())
	}

	var steps []string
	for cur := n; cur != nil && cur.NodeType() != DOCUMENT_NODE; cur = cur.ParentNode() {
		if cur.NodeType() != ELEMENT_NODE {
			continue
		}
		steps = append([]string{fmt.Sprintf("%s[%d]", cur.NodeName(), elementIndex(cur))}, steps...)
	}
	return "/" + strings.Join(steps, "/")
}

// elementIndex returns the 1-based position of n among same-named element
// siblings, the convention XPath predicates use.
func elementIndex(n Node) int {
	name := n.NodeName()
	idx := 1
	for sib := n.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		if sib.NodeType() == ELEMENT_NODE && sib.NodeName() == name {
			idx++
		}
	}
	return idx
}

// attrOwnerElement finds the element an attribute node belongs to by
// scanning the document's elements for that attribute node.
func attrOwnerElement(attr Node) Node {
	doc := attr.OwnerDocument()
	if doc == nil {
		return nil
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil
	}
	return findOwner(root, attr)
}

func findOwner(el Node, attr Node) Node {
	if elem, ok := el.(Element); ok {
		if attrs := elem.Attributes(); attrs != nil {
			for i := uint(0); i < attrs.Length(); i++ {
				if a := attrs.Item(i); a != nil && a.IsSameNode(attr) {
					return el
				}
			}
		}
	}
	for c := el.FirstChild(); c != nil; c = c.NextSibling() {
		if c.NodeType() == ELEMENT_NODE {
			if found := findOwner(c, attr); found != nil {
				return found
			}
		}
	}
	return nil
}
