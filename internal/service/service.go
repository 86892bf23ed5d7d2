package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/karupanerura/rpn-expressions/internal/expression"
	"github.com/karupanerura/rpn-expressions/internal/store"
	"github.com/karupanerura/rpn-expressions/internal/types"
)

// Service implements the expression operations on top of a store. Every
// operation touches a single expression id.
type Service struct {
	store     store.Store
	evaluator expression.Evaluator

	locksMu sync.Mutex
	locks   map[int]*idLock
}

// idLock is dropped from Service.locks once refs reaches zero.
type idLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

// WithLenientEvaluation makes Evaluate return the top of the stack when more
// than one value is left.
func WithLenientEvaluation(lenient bool) Option {
	return func(s *Service) {
		s.evaluator.Lenient = lenient
	}
}

func WithDebug(debug bool) Option {
	return func(s *Service) {
		s.evaluator.Debug = debug
	}
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, locks: map[int]*idLock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(id int) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		defer s.locksMu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
	}
}

func (s *Service) List(ctx context.Context) ([]int, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListIDs: %w", err)
	}
	log.Printf("returning all expressions size %d", len(ids))
	return ids, nil
}

func (s *Service) load(ctx context.Context, id int) (expression.Buffer, error) {
	raw, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	b, err := expression.ParseBuffer(raw)
	if err != nil {
		return nil, fmt.Errorf("stored expression %d: %w", id, err)
	}
	return b, nil
}

// Get returns the tokens of id joined by the separator.
func (s *Service) Get(ctx context.Context, id int) (string, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	log.Printf("returning expression with ID %d", id)
	return b.String(), nil
}

// Create stores a new expression. raw may be empty or hold initial tokens;
// it is rejected unless every token is valid and no operator underflows.
func (s *Service) Create(ctx context.Context, id int, raw string) error {
	unlock := s.lock(id)
	defer unlock()

	b, err := expression.ParseBuffer(raw)
	if err != nil {
		return err
	}
	if err = s.evaluator.Check(b); err != nil {
		return &types.Error{Tag: types.OperatorNotValidHereErrorTag, Err: err}
	}

	if err = s.store.Create(ctx, id, b.Encode()); err != nil {
		return err
	}
	log.Printf("created expression with ID %d", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	unlock := s.lock(id)
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("deleted expression with ID %d", id)
	return nil
}

// Evaluate returns the formatted value of id.
func (s *Service) Evaluate(ctx context.Context, id int) (string, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	log.Printf("evaluation expression with ID %d", id)
	v, err := s.evaluator.Evaluate(b)
	if err != nil {
		return "", err
	}
	return expression.FormatResult(v), nil
}
