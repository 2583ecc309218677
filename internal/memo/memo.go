// Package memo edits the free-form memo tree stored next to the timeline
// groups. Every function takes the current tree and returns the updated
// one, so callers can pass them straight to graph.Board.UpdateMemo.
package memo

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/npratt/okline/internal/model"
)

// Entry describes a memo node to add.
type Entry struct {
	Key   string
	Type  model.MemoType
	Value string
}

// ParseValue converts the textual value of an entry to the value stored
// for its type. Containers carry no value.
func ParseValue(typ model.MemoType, raw string) (interface{}, error) {
	switch typ {
	case model.MemoString:
		return raw, nil
	case model.MemoNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", model.ErrInvalidOperation, raw)
		}
		return f, nil
	case model.MemoBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", model.ErrInvalidOperation, raw)
		}
		return b, nil
	case model.MemoObject, model.MemoArray:
		if raw != "" {
			return nil, fmt.Errorf("%w: %s entries hold children, not a value", model.ErrInvalidOperation, typ)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown memo type %q", model.ErrInvalidOperation, typ)
	}
}

// Add appends a new entry under parentID, or at the top level when parentID
// is empty. The parent must be an object or array; only array items may
// omit the key.
func Add(nodes []model.MemoNode, parentID string, e Entry) ([]model.MemoNode, model.MemoNode, error) {
	if e.Type == "" {
		e.Type = model.MemoString
	}
	val, err := ParseValue(e.Type, e.Value)
	if err != nil {
		return nodes, model.MemoNode{}, err
	}
	n := model.MemoNode{ID: model.NewID(), Key: e.Key, Type: e.Type, Value: val}
	if e.Type.IsContainer() {
		n.Children = []model.MemoNode{}
	}

	out := model.CloneMemo(nodes)
	if out == nil {
		out = []model.MemoNode{}
	}
	emptyKey := strings.TrimSpace(e.Key) == ""
	if parentID == "" {
		if emptyKey {
			return nodes, model.MemoNode{}, fmt.Errorf("%w: memo key", model.ErrEmptyTitle)
		}
		return append(out, n), n, nil
	}
	parent := Find(out, parentID)
	if parent == nil {
		return nodes, model.MemoNode{}, fmt.Errorf("%w: memo %s", model.ErrNotFound, parentID)
	}
	if !parent.Type.IsContainer() {
		return nodes, model.MemoNode{}, fmt.Errorf("%w: memo %s is a %s and cannot hold children", model.ErrInvalidOperation, parentID, parent.Type)
	}
	if emptyKey && parent.Type != model.MemoArray {
		return nodes, model.MemoNode{}, fmt.Errorf("%w: memo key", model.ErrEmptyTitle)
	}
	parent.Children = append(parent.Children, n)
	return out, n, nil
}

// Rename changes the key of entry id.
func Rename(nodes []model.MemoNode, id, key string) ([]model.MemoNode, error) {
	if strings.TrimSpace(key) == "" {
		return nodes, fmt.Errorf("%w: memo key", model.ErrEmptyTitle)
	}
	out := model.CloneMemo(nodes)
	n := Find(out, id)
	if n == nil {
		return nodes, fmt.Errorf("%w: memo %s", model.ErrNotFound, id)
	}
	n.Key = key
	return out, nil
}

// SetValue replaces the value of a leaf entry.
func SetValue(nodes []model.MemoNode, id, raw string) ([]model.MemoNode, error) {
	out := model.CloneMemo(nodes)
	n := Find(out, id)
	if n == nil {
		return nodes, fmt.Errorf("%w: memo %s", model.ErrNotFound, id)
	}
	val, err := ParseValue(n.Type, raw)
	if err != nil {
		return nodes, err
	}
	n.Value = val
	return out, nil
}

// ToggleCollapsed flips the collapsed flag of a container entry.
func ToggleCollapsed(nodes []model.MemoNode, id string) ([]model.MemoNode, error) {
	out := model.CloneMemo(nodes)
	n := Find(out, id)
	if n == nil {
		return nodes, fmt.Errorf("%w: memo %s", model.ErrNotFound, id)
	}
	if !n.Type.IsContainer() {
		return nodes, fmt.Errorf("%w: memo %s has no children to collapse", model.ErrInvalidOperation, id)
	}
	n.IsCollapsed = !n.IsCollapsed
	return out, nil
}

// Remove deletes entry id together with its children.
func Remove(nodes []model.MemoNode, id string) ([]model.MemoNode, error) {
	out, ok := remove(model.CloneMemo(nodes), id)
	if !ok {
		return nodes, fmt.Errorf("%w: memo %s", model.ErrNotFound, id)
	}
	return out, nil
}

func remove(nodes []model.MemoNode, id string) ([]model.MemoNode, bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return slices.Delete(nodes, i, i+1), true
		}
		if children, ok := remove(nodes[i].Children, id); ok {
			nodes[i].Children = children
			return nodes, true
		}
	}
	return nodes, false
}

// Find returns a pointer into nodes for entry id, or nil.
func Find(nodes []model.MemoNode, id string) *model.MemoNode {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		if n := Find(nodes[i].Children, id); n != nil {
			return n
		}
	}
	return nil
}

// Walk visits entries depth first in order. depth is 0 for top-level
// entries. Children of collapsed entries are skipped unless all is set.
func Walk(nodes []model.MemoNode, all bool, fn func(n *model.MemoNode, depth int)) {
	var walk func([]model.MemoNode, int)
	walk = func(level []model.MemoNode, depth int) {
		for i := range level {
			fn(&level[i], depth)
			if all || !level[i].IsCollapsed {
				walk(level[i].Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}

// Format renders an entry's value for display.
func Format(n *model.MemoNode) string {
	switch n.Type {
	case model.MemoObject:
		return fmt.Sprintf("{%d}", len(n.Children))
	case model.MemoArray:
		return fmt.Sprintf("[%d]", len(n.Children))
	case model.MemoNumber:
		if f, ok := n.Value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	if n.Value == nil {
		return ""
	}
	return fmt.Sprint(n.Value)
}
