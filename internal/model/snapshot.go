package model

import (
	"slices"
	"time"
)

// CurrentVersion is the snapshot format version written by this package.
const CurrentVersion = "1.0.0"

// SyncStatus records the outcome of the last remote sync.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending"
	SyncError   SyncStatus = "error"
)

// TimelineGroup is a user-ordered collection of timelines.
type TimelineGroup struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Timelines []Timeline `json:"timelines" yaml:"timelines"`
}

// NewGroup returns an empty timeline group.
func NewGroup(title string) TimelineGroup {
	return TimelineGroup{ID: NewID(), Title: title, Timelines: []Timeline{}}
}

// TimelineIndex returns the index of the timeline with id, or -1.
func (g *TimelineGroup) TimelineIndex(id string) int {
	for i := range g.Timelines {
		if g.Timelines[i].ID == id {
			return i
		}
	}
	return -1
}

// Timeline returns the timeline with id, or nil.
func (g *TimelineGroup) Timeline(id string) *Timeline {
	if i := g.TimelineIndex(id); i >= 0 {
		return &g.Timelines[i]
	}
	return nil
}

// Clone returns a deep copy of the group.
func (g TimelineGroup) Clone() TimelineGroup {
	c := g
	c.Timelines = make([]Timeline, len(g.Timelines))
	for i, tl := range g.Timelines {
		c.Timelines[i] = tl.Clone()
	}
	return c
}

// Metadata describes a persisted snapshot.
type Metadata struct {
	LastModified time.Time  `json:"lastModified" yaml:"lastModified"`
	SyncStatus   SyncStatus `json:"syncStatus,omitempty" yaml:"syncStatus,omitempty"`
}

// Snapshot is the complete persisted state: every timeline group in user
// order plus the memo tree.
type Snapshot struct {
	Version  string          `json:"version" yaml:"version"`
	Metadata Metadata        `json:"metadata" yaml:"metadata"`
	Memo     []MemoNode      `json:"memo" yaml:"memo"`
	Groups   []TimelineGroup `json:"timelineGroups" yaml:"timelineGroups"`
}

// NewSnapshot returns an empty snapshot at the current version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version: CurrentVersion,
		Memo:    []MemoNode{},
		Groups:  []TimelineGroup{},
	}
}

// GroupIndex returns the index of the group with id, or -1.
func (s *Snapshot) GroupIndex(id string) int {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return i
		}
	}
	return -1
}

// Group returns the group with id, or nil.
func (s *Snapshot) Group(id string) *TimelineGroup {
	if i := s.GroupIndex(id); i >= 0 {
		return &s.Groups[i]
	}
	return nil
}

// FindTimeline locates a timeline across all groups.
func (s *Snapshot) FindTimeline(id string) (*TimelineGroup, *Timeline) {
	for gi := range s.Groups {
		if tl := s.Groups[gi].Timeline(id); tl != nil {
			return &s.Groups[gi], tl
		}
	}
	return nil, nil
}

// FindNode locates a node across all timelines of all groups.
func (s *Snapshot) FindNode(id string) (*TimelineGroup, *Timeline, *Node) {
	for gi := range s.Groups {
		g := &s.Groups[gi]
		for ti := range g.Timelines {
			if n := g.Timelines[ti].Node(id); n != nil {
				return g, &g.Timelines[ti], n
			}
		}
	}
	return nil, nil, nil
}

// Timelines returns every timeline across all groups, in group order.
func (s *Snapshot) Timelines() []*Timeline {
	var out []*Timeline
	for gi := range s.Groups {
		for ti := range s.Groups[gi].Timelines {
			out = append(out, &s.Groups[gi].Timelines[ti])
		}
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Memo = CloneMemo(s.Memo)
	c.Groups = make([]TimelineGroup, len(s.Groups))
	for i, g := range s.Groups {
		c.Groups[i] = g.Clone()
	}
	return &c
}

// MemoType is the value type of a memo entry.
type MemoType string

const (
	MemoString  MemoType = "string"
	MemoObject  MemoType = "object"
	MemoArray   MemoType = "array"
	MemoNumber  MemoType = "number"
	MemoBoolean MemoType = "boolean"
)

// IsContainer reports whether entries of this type hold children.
func (t MemoType) IsContainer() bool {
	return t == MemoObject || t == MemoArray
}

// MemoNode is one entry of the free-form memo tree.
type MemoNode struct {
	ID          string      `json:"id" yaml:"id"`
	Key         string      `json:"key" yaml:"key"`
	Type        MemoType    `json:"type" yaml:"type"`
	Value       interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	Children    []MemoNode  `json:"children,omitempty" yaml:"children,omitempty"`
	IsCollapsed bool        `json:"isCollapsed,omitempty" yaml:"isCollapsed,omitempty"`
}

// CloneMemo deep copies a memo tree.
func CloneMemo(nodes []MemoNode) []MemoNode {
	if nodes == nil {
		return nil
	}
	out := slices.Clone(nodes)
	for i := range out {
		out[i].Children = CloneMemo(nodes[i].Children)
	}
	return out
}
