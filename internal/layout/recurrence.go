package layout

import (
	"strconv"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
)

// recurrenceNodes renders a recurrence timeline as a chain: a start
// delimiter, one node per realized instance, then futureCount upcoming
// nodes (the first actionable, the rest locked) while the timeline is
// active, and an end delimiter when it has an end date.
func recurrenceNodes(tl *model.Timeline, futureCount int) []model.Node {
	var chain []model.Node
	add := func(n model.Node) {
		if len(chain) > 0 {
			prev := &chain[len(chain)-1]
			prev.Succs = append(prev.Succs, n.ID)
			n.Prevs = []string{prev.ID}
		}
		chain = append(chain, n)
	}

	add(model.Node{
		ID:     tl.ID + "-start",
		Kind:   model.KindDelimiter,
		Marker: model.MarkerStart,
		Title:  "Start",
		Status: model.StatusDone,
	})

	r := tl.Recurrence
	if r == nil {
		return chain
	}
	for i, ct := range r.CompletedTasks {
		add(model.Node{
			ID:     tl.ID + "-completed-" + strconv.Itoa(i),
			Kind:   model.KindTask,
			Title:  ct.Title,
			Status: ct.Status,
		})
	}

	if r.Active {
		for i, title := range recurrence.Future(tl, futureCount) {
			st := model.StatusLock
			if i == 0 {
				st = model.StatusTodo
			}
			add(model.Node{
				ID:     tl.ID + "-future-" + strconv.Itoa(i),
				Kind:   model.KindTask,
				Title:  title,
				Status: st,
			})
		}
	}

	if r.EndDate != nil {
		end := model.StatusLock
		if !r.Active {
			end = model.StatusDone
		}
		add(model.Node{
			ID:     tl.ID + "-end",
			Kind:   model.KindDelimiter,
			Marker: model.MarkerEnd,
			Title:  "End",
			Status: end,
		})
	}
	return chain
}
