// Package store persists task lists, crop plans and their tasks.
//
// The whole state is one JSON document with a "lists" and a "cropPlans"
// collection; each owner embeds its ordered tasks. Every mutation reads the
// document, changes it and writes the full document back before returning.
// There is no locking across calls: with two writers the last write wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
)

// Document is the persisted layout.
type Document struct {
	Lists     []types.Owner `json:"lists"`
	CropPlans []types.Owner `json:"cropPlans"`
}

func (d *Document) collection(kind types.OwnerKind) *[]types.Owner {
	if kind == types.OwnerPlan {
		return &d.CropPlans
	}
	return &d.Lists
}

// find returns the owner with id and its collection, or nil.
func (d *Document) find(id string) (*types.Owner, *[]types.Owner) {
	for _, coll := range []*[]types.Owner{&d.Lists, &d.CropPlans} {
		for i := range *coll {
			if (*coll)[i].ID == id {
				return &(*coll)[i], coll
			}
		}
	}
	return nil, nil
}

// Default titles used when Create is given a blank one.
const (
	DefaultPlanTitle = "My Plan"
	DefaultListTitle = "My List"
	QuickPlanArea    = "0.1 acres"
)

// Store implements the task/plan operations over a Backend.
type Store struct {
	backend Backend
	mu      sync.Mutex // held for the duration of one call only
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) load(ctx context.Context) (*Document, error) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to decode store document: %w", err)
		}
	}
	for i := range doc.Lists {
		doc.Lists[i].Kind = types.OwnerList
	}
	for i := range doc.CropPlans {
		doc.CropPlans[i].Kind = types.OwnerPlan
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc *Document) error {
	if doc.Lists == nil {
		doc.Lists = []types.Owner{}
	}
	if doc.CropPlans == nil {
		doc.CropPlans = []types.Owner{}
	}
	for _, coll := range [][]types.Owner{doc.Lists, doc.CropPlans} {
		for i := range coll {
			if coll[i].Tasks == nil {
				coll[i].Tasks = []types.Task{}
			}
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store document: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		logging.StoreError("persist failed: %v", err)
		return err
	}
	return nil
}

// ListAll returns the owners of kind in stored order. Crop plans are
// newest first; lists are oldest first.
func (s *Store) ListAll(ctx context.Context, kind types.OwnerKind) ([]types.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	src := *doc.collection(kind)
	out := make([]types.Owner, len(src))
	for i, o := range src {
		out[i] = o.Clone()
	}
	return out, nil
}

// Get returns the owner with id from either collection.
func (s *Store) Get(ctx context.Context, id string) (types.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return types.Owner{}, err
	}
	owner, _ := doc.find(id)
	if owner == nil {
		return types.Owner{}, fmt.Errorf("%w: %s", types.ErrOwnerNotFound, id)
	}
	return owner.Clone(), nil
}

// Create adds a new owner with a fresh id. New crop plans go to the front
// of their collection, new lists to the back. A blank title gets a default.
func (s *Store) Create(ctx context.Context, kind types.OwnerKind, title string, metadata map[string]string) (types.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, kind, title, metadata)
}

func (s *Store) create(ctx context.Context, kind types.OwnerKind, title string, metadata map[string]string) (types.Owner, error) {
	if kind != types.OwnerList && kind != types.OwnerPlan {
		return types.Owner{}, fmt.Errorf("%w: unknown owner kind %q", types.ErrInput, kind)
	}
	doc, err := s.load(ctx)
	if err != nil {
		return types.Owner{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultListTitle
		if kind == types.OwnerPlan {
			title = DefaultPlanTitle
		}
	}
	owner := types.Owner{
		ID:        s.uniqueID(doc),
		Kind:      kind,
		Title:     title,
		CreatedAt: s.now(),
		Tasks:     []types.Task{},
	}
	if len(metadata) > 0 {
		owner.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			owner.Metadata[k] = v
		}
	}

	coll := doc.collection(kind)
	if kind == types.OwnerPlan {
		*coll = append([]types.Owner{owner}, *coll...)
	} else {
		*coll = append(*coll, owner)
	}
	if err := s.save(ctx, doc); err != nil {
		return types.Owner{}, err
	}

	logging.Store("created %s %s (%q)", kind, owner.ID, owner.Title)
	return owner.Clone(), nil
}

// maxIDDraws bounds how often a custom generator is asked before falling back to uuid.
const maxIDDraws = 16

// uniqueID returns an id not yet used by any owner or task in doc.
func (s *Store) uniqueID(doc *Document) string {
	for i := 0; i < maxIDDraws; i++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if owner, _ := doc.find(id); owner == nil && !hasTask(doc, id) {
			return id
		}
	}
	return uuid.New().String()
}

func hasTask(doc *Document, id string) bool {
	for _, coll := range [][]types.Owner{doc.Lists, doc.CropPlans} {
		for _, o := range coll {
			for _, t := range o.Tasks {
				if t.ID == id {
					return true
				}
			}
		}
	}
	return false
}

// AddTask appends a task to the owner with ownerID. A missing owner fails
// with types.ErrOwnerNotFound and nothing is written.
func (s *Store) AddTask(ctx context.Context, ownerID, text string) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTask(ctx, ownerID, text)
}

func (s *Store) addTask(ctx context.Context, ownerID, text string) (types.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Task{}, fmt.Errorf("%w: task text is empty", types.ErrInput)
	}
	doc, err := s.load(ctx)
	if err != nil {
		return types.Task{}, err
	}
	owner, _ := doc.find(ownerID)
	if owner == nil {
		logging.StoreWarn("add task: owner %s not found", ownerID)
		return types.Task{}, fmt.Errorf("%w: %s", types.ErrOwnerNotFound, ownerID)
	}

	task := types.Task{
		ID:        s.uniqueID(doc),
		Text:      text,
		CreatedAt: s.now(),
		ParentID:  owner.ID,
	}
	owner.Tasks = append(owner.Tasks, task)
	if err := s.save(ctx, doc); err != nil {
		return types.Task{}, err
	}

	logging.StoreDebug("added task %s to %s", task.ID, ownerID)
	return task, nil
}

// CreateAndAddTask creates an owner and appends one task to it. The two
// writes are separate: if the task append fails the owner stays.
func (s *Store) CreateAndAddTask(ctx context.Context, kind types.OwnerKind, title string, metadata map[string]string, text string) (types.Owner, types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.create(ctx, kind, title, metadata)
	if err != nil {
		return types.Owner{}, types.Task{}, err
	}
	task, err := s.addTask(ctx, owner.ID, text)
	if err != nil {
		return owner, types.Task{}, fmt.Errorf("owner %s created but task not added: %w", owner.ID, err)
	}
	owner.Tasks = append(owner.Tasks, task)
	return owner, task, nil
}

// QuickPlan creates a crop plan from a suggestion such as
// "Remove Pigweed - Hand pull". The crop is the suggestion's second word.
func (s *Store) QuickPlan(ctx context.Context, suggestion, text string) (types.Owner, types.Task, error) {
	crop := DefaultPlanTitle
	if words := strings.Fields(suggestion); len(words) > 1 {
		crop = words[1]
	}
	meta := map[string]string{"crop": crop, "area": QuickPlanArea}
	return s.CreateAndAddTask(ctx, types.OwnerPlan, crop, meta, text)
}

// Delete removes an owner together with its tasks.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	owner, coll := doc.find(id)
	if owner == nil {
		return fmt.Errorf("%w: %s", types.ErrOwnerNotFound, id)
	}
	removed := len(owner.Tasks)
	kept := make([]types.Owner, 0, len(*coll)-1)
	for _, o := range *coll {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	*coll = kept
	if err := s.save(ctx, doc); err != nil {
		return err
	}
	logging.Store("deleted %s with %d tasks", id, removed)
	return nil
}
