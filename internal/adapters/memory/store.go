// Package memory provides an in-process implementation of the ledger storage
// ports. Every unit of work holds a single mutex, which gives the same
// serialization guarantees as the SQL stores at the cost of concurrency.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

type identKey struct {
	partNumber   string
	trackingType models.TrackingType
	identifier   string
}

type state struct {
	items       map[models.ItemKind]map[string]*models.Item
	identifiers map[identKey]models.ItemRef
	sequences   map[string]models.SequenceCounter
}

func newState() state {
	st := state{
		items:       make(map[models.ItemKind]map[string]*models.Item),
		identifiers: make(map[identKey]models.ItemRef),
		sequences:   make(map[string]models.SequenceCounter),
	}
	for _, kind := range models.AllKinds {
		st.items[kind] = make(map[string]*models.Item)
	}
	return st
}

func (st state) clone() state {
	out := newState()
	for kind, byID := range st.items {
		for id, item := range byID {
			out.items[kind][id] = item.Clone()
		}
	}
	for k, v := range st.identifiers {
		out.identifiers[k] = v
	}
	for k, v := range st.sequences {
		out.sequences[k] = v
	}
	return out
}

// Store is an in-memory secondary.Transactor.
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// WithinTx runs fn with exclusive access to the store. Writes are discarded
// when fn fails or the context is done before fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow secondary.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	if err := fn(ctx, &unitOfWork{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

type unitOfWork struct {
	s *Store
}

func (u *unitOfWork) Items(kind models.ItemKind) (secondary.ItemStore, error) {
	if _, ok := u.s.st.items[kind]; !ok {
		return nil, fmt.Errorf("no store for kind %q", kind)
	}
	return &itemStore{s: u.s, kind: kind}, nil
}

func (u *unitOfWork) Sequences() secondary.SequenceRepository {
	return &sequenceStore{s: u.s}
}

type itemStore struct {
	s    *Store
	kind models.ItemKind
}

func (r *itemStore) Kind() models.ItemKind { return r.kind }

func (r *itemStore) table() map[string]*models.Item { return r.s.st.items[r.kind] }

func (r *itemStore) GetByID(ctx context.Context, id string) (*models.Item, error) {
	item, ok := r.table()[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", r.kind, id, models.ErrNotFound)
	}
	return item.Clone(), nil
}

func (r *itemStore) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemStore) FindByIdentifier(ctx context.Context, partNumber, identifier string, tt models.TrackingType) (*models.Item, error) {
	for _, item := range r.table() {
		if item.PartNumber != partNumber || item.TrackingType != tt {
			continue
		}
		if item.Identifier() == identifier {
			return item.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%s %s/%s: %w", r.kind, partNumber, identifier, models.ErrNotFound)
}

func (r *itemStore) FindChildren(ctx context.Context, partNumber, parentIdentifier string) ([]*models.Item, error) {
	var children []*models.Item
	for _, item := range r.table() {
		if item.PartNumber == partNumber && item.ParentIdentifier == parentIdentifier {
			children = append(children, item.Clone())
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if !children[i].CreatedAt.Equal(children[j].CreatedAt) {
			return children[i].CreatedAt.Before(children[j].CreatedAt)
		}
		return children[i].ID < children[j].ID
	})
	return children, nil
}

func (r *itemStore) Insert(ctx context.Context, item *models.Item) error {
	if item.Kind != r.kind {
		return fmt.Errorf("cannot insert %s into %s store", item.Kind, r.kind)
	}
	if _, exists := r.table()[item.ID]; exists {
		return fmt.Errorf("%s %s already exists", r.kind, item.ID)
	}
	key := keyFor(item)
	if ref, taken := r.s.st.identifiers[key]; taken {
		return r.duplicate(item, ref)
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	r.table()[item.ID] = item.Clone()
	r.s.st.identifiers[key] = item.Ref()
	return nil
}

func (r *itemStore) Update(ctx context.Context, item *models.Item) error {
	existing, ok := r.table()[item.ID]
	if !ok {
		return fmt.Errorf("%s %s: %w", r.kind, item.ID, models.ErrNotFound)
	}
	oldKey, newKey := keyFor(existing), keyFor(item)
	if oldKey != newKey {
		if ref, taken := r.s.st.identifiers[newKey]; taken {
			return r.duplicate(item, ref)
		}
		delete(r.s.st.identifiers, oldKey)
		r.s.st.identifiers[newKey] = item.Ref()
	}
	item.UpdatedAt = time.Now().UTC()
	r.table()[item.ID] = item.Clone()
	return nil
}

func (r *itemStore) duplicate(item *models.Item, ref models.ItemRef) error {
	dup := &models.DuplicateIdentifierError{
		PartNumber:   item.PartNumber,
		Identifier:   item.Identifier(),
		TrackingType: item.TrackingType,
		ConflictKind: ref.Kind,
		ConflictID:   ref.ID,
	}
	if holder, ok := r.s.st.items[ref.Kind][ref.ID]; ok {
		dup.ConflictLocation = holder.LocationRef
	}
	return dup
}

func keyFor(item *models.Item) identKey {
	return identKey{partNumber: item.PartNumber, trackingType: item.TrackingType, identifier: item.Identifier()}
}

type sequenceStore struct {
	s *Store
}

func (r *sequenceStore) Increment(ctx context.Context, dateKey string, limit int) (int, error) {
	counter := r.s.st.sequences[dateKey]
	if counter.Counter >= limit {
		return 0, &models.SequenceExhaustionError{DateKey: dateKey, Limit: limit}
	}
	counter.DateKey = dateKey
	counter.Counter++
	counter.LastGeneratedAt = time.Now().UTC()
	r.s.st.sequences[dateKey] = counter
	return counter.Counter, nil
}

func (r *sequenceStore) Get(ctx context.Context, dateKey string) (*models.SequenceCounter, error) {
	counter, ok := r.s.st.sequences[dateKey]
	if !ok {
		return nil, fmt.Errorf("sequence %s: %w", dateKey, models.ErrNotFound)
	}
	return &counter, nil
}

// Ensure Store implements the interface
var _ secondary.Transactor = (*Store)(nil)
