package types

import (
	"fmt"
	"strings"
	"time"
)

// OwnerKind distinguishes generic task lists from crop plans.
type OwnerKind string

const (
	OwnerList OwnerKind = "list"
	OwnerPlan OwnerKind = "plan"
)

// ParseOwnerKind accepts "list(s)" or "plan(s)".
func ParseOwnerKind(s string) (OwnerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "list", "lists":
		return OwnerList, nil
	case "plan", "plans", "cropplan", "cropplans":
		return OwnerPlan, nil
	}
	return "", fmt.Errorf("%w: unknown owner kind %q (valid: list, plan)", ErrInput, s)
}

// Task is one actionable item. It always belongs to exactly one owner.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	ParentID  string    `json:"parentId"`
}

// Owner is a task list or a crop plan. Tasks are kept in insertion order.
type Owner struct {
	ID        string            `json:"id"`
	Kind      OwnerKind         `json:"kind"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tasks     []Task            `json:"tasks"`
}

// CropName is the crop a plan is about: metadata "crop" when set, else the title.
func (o Owner) CropName() string {
	if c := strings.TrimSpace(o.Metadata["crop"]); c != "" {
		return c
	}
	return o.Title
}

// Clone returns a deep copy so callers can't reach into store state.
func (o Owner) Clone() Owner {
	c := o
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	c.Tasks = append([]Task(nil), o.Tasks...)
	return c
}
