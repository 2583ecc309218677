package testutil

import (
	"time"

	"github.com/npratt/okline/internal/model"
)

// Graph fixtures shared by the status, graph, layout and storage tests.
// Node ids equal their titles so assertions can name them directly.

// TaskNode returns a todo task node with the given id as id and title.
func TaskNode(id string) model.Node {
	return model.Node{
		ID:     id,
		Kind:   model.KindTask,
		Title:  id,
		Status: model.StatusTodo,
		Prevs:  []string{},
		Succs:  []string{},
	}
}

// StartNode returns a start delimiter with the given id.
func StartNode(id string) model.Node {
	n := TaskNode(id)
	n.Kind = model.KindDelimiter
	n.Marker = model.MarkerStart
	n.Title = "Start"
	return n
}

// EndNode returns an end delimiter with the given id.
func EndNode(id string) model.Node {
	n := StartNode(id)
	n.Marker = model.MarkerEnd
	n.Title = "End"
	return n
}

// Link adds a symmetric edge from -> to inside tl.
func Link(tl *model.Timeline, from, to string) {
	f, t := tl.Node(from), tl.Node(to)
	if f == nil || t == nil {
		panic("testutil.Link: unknown node " + from + " or " + to)
	}
	f.Succs = append(f.Succs, to)
	t.Prevs = append(t.Prevs, from)
}

// Chain returns a task timeline whose nodes form a single path in the
// given order, without delimiters.
func Chain(timelineID string, ids ...string) model.Timeline {
	tl := model.Timeline{ID: timelineID, Title: timelineID, Kind: model.TimelineKindTask}
	for _, id := range ids {
		tl.Nodes = append(tl.Nodes, TaskNode(id))
	}
	for i := 1; i < len(ids); i++ {
		Link(&tl, ids[i-1], ids[i])
	}
	return tl
}

// ChainWithStart returns a task timeline "<timelineID>-start" -> ids...
func ChainWithStart(timelineID string, ids ...string) model.Timeline {
	tl := model.Timeline{ID: timelineID, Title: timelineID, Kind: model.TimelineKindTask}
	startID := timelineID + "-start"
	tl.Nodes = append(tl.Nodes, StartNode(startID))
	prev := startID
	for _, id := range ids {
		tl.Nodes = append(tl.Nodes, TaskNode(id))
		Link(&tl, prev, id)
		prev = id
	}
	return tl
}

// Diamond returns start -> a -> {b, c} -> d.
func Diamond(timelineID string) model.Timeline {
	tl := ChainWithStart(timelineID, "a")
	for _, id := range []string{"b", "c", "d"} {
		tl.Nodes = append(tl.Nodes, TaskNode(id))
	}
	Link(&tl, "a", "b")
	Link(&tl, "a", "c")
	Link(&tl, "b", "d")
	Link(&tl, "c", "d")
	return tl
}

// WeeklyTimeline returns an active weekly recurrence timeline starting at
// start with one template per title.
func WeeklyTimeline(id string, start time.Time, weekdays []int, titles ...string) model.Timeline {
	templates := make([]model.TaskTemplate, len(titles))
	for i, t := range titles {
		templates[i] = model.TaskTemplate{ID: id + "-tpl-" + t, Title: t}
	}
	return model.Timeline{
		ID:     id,
		Title:  id,
		Kind:   model.TimelineKindRecurrence,
		Status: model.TimelineTodo,
		Recurrence: &model.Recurrence{
			Frequency:      model.FrequencyWeekly,
			Weekdays:       weekdays,
			Pattern:        model.RecurrencePattern{Templates: templates},
			StartDate:      start,
			CompletedTasks: []model.CompletedTask{},
			Active:         true,
		},
	}
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Group wraps timelines into a group with the given id.
func Group(id string, timelines ...model.Timeline) model.TimelineGroup {
	if timelines == nil {
		timelines = []model.Timeline{}
	}
	return model.TimelineGroup{ID: id, Title: id, Timelines: timelines}
}

// Snapshot wraps groups into a snapshot at the current version.
func Snapshot(groups ...model.TimelineGroup) *model.Snapshot {
	s := model.NewSnapshot()
	s.Groups = append(s.Groups, groups...)
	return s
}

// SampleSnapshotJSON is a small persisted snapshot: one group holding a
// task timeline start -> write -> review and a daily recurrence timeline.
var SampleSnapshotJSON = `{
  "version": "1.0.0",
  "metadata": {
    "lastModified": "2025-10-20T09:00:00Z",
    "syncStatus": "synced"
  },
  "memo": [
    {"id": "m1", "key": "notes", "type": "string", "value": "hello"}
  ],
  "timelineGroups": [
    {
      "id": "g1",
      "title": "Work",
      "timelines": [
        {
          "id": "tl1",
          "title": "Report",
          "type": "task",
          "nodes": [
            {"id": "s1", "type": "delimiter", "title": "Start", "status": "todo", "markerType": "start", "prevs": [], "succs": ["write"]},
            {"id": "write", "type": "task", "title": "Write", "status": "done", "prevs": ["s1"], "succs": ["review"]},
            {"id": "review", "type": "task", "title": "Review", "status": "todo", "prevs": ["write"], "succs": []}
          ],
          "dependencies": [
            {"id": "d1", "type": "split", "from": "write", "to": ["tl2"]}
          ]
        },
        {
          "id": "tl2",
          "title": "Standup",
          "type": "recurrence",
          "status": "todo",
          "recurrence": {
            "frequency": "daily",
            "pattern": {"taskTemplates": [{"id": "t1", "title": "Standup"}], "currentIndex": 0},
            "startDate": "2025-10-20T00:00:00Z",
            "completedTasks": [],
            "stats": {"totalCompleted": 0, "totalSkipped": 0},
            "active": true
          }
        }
      ]
    }
  ]
}`
