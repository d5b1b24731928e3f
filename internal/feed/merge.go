package feed

import (
	"container/heap"
	"slices"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// tagged is one source's page together with its tag.
type tagged struct {
	tag  domain.SourceTag
	occs []domain.Occurrence
}

// head is the next unread occurrence of one list.
type head struct {
	list int
	pos  int
	key  domain.FeedKey
}

// heads is a min-heap of list heads in newest-first feed order. Equal keys
// pop in list order so the merge is stable.
type heads []head

func (h heads) Len() int { return len(h) }
func (h heads) Less(i, j int) bool {
	if h[i].key.Equal(h[j].key) {
		return h[i].list < h[j].list
	}
	return h[i].key.Before(h[j].key)
}
func (h heads) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heads) Push(x any) { *h = append(*h, x.(head)) }
func (h *heads) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// mergeLists k-way merges newest-first lists into one newest-first list,
// keeping a single item per occurrence id with the union of source tags.
func mergeLists(lists []tagged) []domain.FeedItem {
	h := make(heads, 0, len(lists))
	total := 0
	for i, l := range lists {
		total += len(l.occs)
		if len(l.occs) > 0 {
			h = append(h, head{list: i, key: domain.KeyOf(l.occs[0])})
		}
	}
	heap.Init(&h)

	out := make([]domain.FeedItem, 0, total)
	seen := make(map[string]int, total)
	for h.Len() > 0 {
		top := heap.Pop(&h).(head)
		l := lists[top.list]
		occ := l.occs[top.pos]

		if idx, ok := seen[occ.ID]; ok {
			if !slices.Contains(out[idx].Sources, l.tag) {
				out[idx].Sources = append(out[idx].Sources, l.tag)
				slices.Sort(out[idx].Sources)
			}
		} else {
			seen[occ.ID] = len(out)
			out = append(out, domain.FeedItem{Occurrence: occ, Sources: []domain.SourceTag{l.tag}})
		}

		if next := top.pos + 1; next < len(l.occs) {
			heap.Push(&h, head{list: top.list, pos: next, key: domain.KeyOf(l.occs[next])})
		}
	}
	return out
}
