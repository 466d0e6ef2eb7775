package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restomenu/menukit/pkg/payment"
)

// PaymentStore is an in-memory payment.Store.
type PaymentStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]payment.Request
}

// NewPaymentStore creates an empty store.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{requests: make(map[uuid.UUID]payment.Request)}
}

func cloneRequest(r payment.Request) payment.Request {
	out := r
	if r.ProcessedAt != nil {
		at := *r.ProcessedAt
		out.ProcessedAt = &at
	}
	return out
}

func (s *PaymentStore) Get(ctx context.Context, id uuid.UUID) (*payment.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	out := cloneRequest(req)
	return &out, nil
}

func (s *PaymentStore) Create(ctx context.Context, req *payment.Request) (*payment.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRequest(*req)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	s.requests[stored.ID] = stored

	out := cloneRequest(stored)
	return &out, nil
}

func (s *PaymentStore) List(ctx context.Context, filter payment.ListFilter) ([]payment.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]payment.Request, 0, len(s.requests))
	for _, req := range s.requests {
		if filter.Matches(&req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status, notes string, processedAt time.Time) (*payment.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	req.Status = status
	req.AdminNotes = notes
	at := processedAt
	req.ProcessedAt = &at
	s.requests[id] = req

	out := cloneRequest(req)
	return &out, nil
}
