// Package memory is a RecordStore kept in process memory. Units of work run
// one at a time against a copy of the state which replaces the original only
// when the unit succeeds.
package memory

import (
	"context"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"sync"
)

type state struct {
	contracts map[int64]model.Contract
	files     map[int64]model.DocumentVersionSet
	approvals map[int64]model.Approval
	users     map[int64]model.User

	nextContractID int64
	nextApprovalID int64
}

func newState() *state {
	return &state{
		contracts: make(map[int64]model.Contract),
		files:     make(map[int64]model.DocumentVersionSet),
		approvals: make(map[int64]model.Approval),
		users:     make(map[int64]model.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		contracts:      make(map[int64]model.Contract, len(s.contracts)),
		files:          make(map[int64]model.DocumentVersionSet, len(s.files)),
		approvals:      make(map[int64]model.Approval, len(s.approvals)),
		users:          make(map[int64]model.User, len(s.users)),
		nextContractID: s.nextContractID,
		nextApprovalID: s.nextApprovalID,
	}
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	for k, v := range s.files {
		c.files[k] = v
	}
	for k, v := range s.approvals {
		c.approvals[k] = cloneApproval(v)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func cloneApproval(a model.Approval) model.Approval {
	if a.Notes != nil {
		notes := *a.Notes
		a.Notes = &notes
	}
	if a.SignedAt != nil {
		signedAt := *a.SignedAt
		a.SignedAt = &signedAt
	}
	return a
}

type Store struct {
	mu    sync.Mutex
	state *state
}

type Option func(*state)

// WithUsers seeds the user directory.
func WithUsers(users ...model.User) Option {
	return func(s *state) {
		for _, u := range users {
			s.users[u.ID] = u
		}
	}
}

func New(opts ...Option) *Store {
	s := newState()
	for _, opt := range opts {
		opt(s)
	}
	return &Store{state: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, &tx{state: working}); err != nil {
		return err
	}

	s.state = working
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
