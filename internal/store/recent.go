package store

import (
	"context"
	"sort"

	"cropdoc/internal/types"
)

// RecentTask is a task with enough owner context to show in a feed.
type RecentTask struct {
	Task       types.Task
	OwnerID    string
	OwnerTitle string
	OwnerKind  types.OwnerKind
}

// Recent returns the most recently created tasks across all owners, newest
// first. limit <= 0 returns every task.
func (s *Store) Recent(ctx context.Context, limit int) ([]RecentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var feed []RecentTask
	for _, coll := range [][]types.Owner{doc.Lists, doc.CropPlans} {
		for _, o := range coll {
			for _, t := range o.Tasks {
				feed = append(feed, RecentTask{Task: t, OwnerID: o.ID, OwnerTitle: o.Title, OwnerKind: o.Kind})
			}
		}
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Task.CreatedAt.After(feed[j].Task.CreatedAt)
	})
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
