package test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// MemoryStore is an in-memory repository set guarded by a single mutex.
// Ledger uniqueness and guarded transitions behave like the SQL versions.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]model.User
	orders   map[string]model.Order
	products map[string]model.Product
	events   map[string]model.PaymentEvent
	nextID   int64

	// Error hooks let tests force infrastructure failures.
	InsertErr     error
	LookupErr     error
	TransitionErr error
	RepairErr     error

	// TransitionCalls counts Transition invocations, applied or not.
	TransitionCalls int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.User),
		orders:   make(map[string]model.Order),
		products: make(map[string]model.Product),
		events:   make(map[string]model.PaymentEvent),
	}
}

func (s *MemoryStore) Users() repository.UserRepository                 { return memoryUsers{s} }
func (s *MemoryStore) Orders() repository.OrderRepository               { return memoryOrders{s} }
func (s *MemoryStore) Products() repository.ProductRepository           { return memoryProducts{s} }
func (s *MemoryStore) PaymentEvents() repository.PaymentEventRepository { return memoryEvents{s} }

// PutOrder stores order as is.
func (s *MemoryStore) PutOrder(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

// Order returns a copy of the stored order.
func (s *MemoryStore) Order(id string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// OrderCount returns the number of stored orders.
func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// PutProduct stores product as is.
func (s *MemoryStore) PutProduct(product model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// Event returns a copy of the stored ledger entry.
func (s *MemoryStore) Event(eventID string) (model.PaymentEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	return e, ok
}

// EventCount returns the number of ledger rows.
func (s *MemoryStore) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *MemoryStore) applyLocked(id string, t model.Transition) int64 {
	o, ok := s.orders[id]
	if !ok || !t.Allows(o.Status) {
		return 0
	}
	o.Status = t.To
	if t.SessionID != "" {
		v := t.SessionID
		o.ExternalSessionID = &v
	}
	if t.PaymentReference != "" {
		v := t.PaymentReference
		o.PaymentReference = &v
	}
	if t.PaidAt != nil {
		v := *t.PaidAt
		o.PaidAt = &v
	}
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return 1
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Login == user.Login {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	u := *user
	if u.ID == "" {
		u.ID = model.NewUserID()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	r.s.users[u.ID] = u
	return &u, nil
}

func (r memoryUsers) GetByLogin(_ context.Context, login string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Login == login {
			found := u
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryUsers) SetRole(_ context.Context, login string, role model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Login == login {
			u.Role = role
			r.s.users[id] = u
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, domainErrors.ErrNotFound
}

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) CreatePending(_ context.Context, order *model.Order) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o := *order
	if o.ID == "" {
		o.ID = model.NewOrderID()
	}
	if _, exists := r.s.orders[o.ID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	o.Status = model.OrderStatusPending
	o.Currency = strings.ToLower(o.Currency)
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.s.orders[o.ID] = o
	return &o, nil
}

func (r memoryOrders) GetByID(_ context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return nil, r.s.LookupErr
	}
	if o, ok := r.s.orders[id]; ok {
		return &o, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryOrders) GetByPaymentReference(_ context.Context, reference string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LookupErr != nil {
		return nil, r.s.LookupErr
	}
	for _, o := range r.s.orders {
		if o.PaymentReference != nil && *o.PaymentReference == reference {
			found := o
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryOrders) AttachSession(_ context.Context, id, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != model.OrderStatusPending {
		return domainErrors.ErrNotFound
	}
	o.ExternalSessionID = &sessionID
	r.s.orders[id] = o
	return nil
}

func (r memoryOrders) Transition(_ context.Context, id string, t model.Transition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.TransitionCalls++
	if r.s.TransitionErr != nil {
		return 0, r.s.TransitionErr
	}
	return r.s.applyLocked(id, t), nil
}

func (r memoryOrders) ListPendingWithSession(_ context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.Order
	for _, o := range r.s.orders {
		if o.Status == model.OrderStatusPending && o.ExternalSessionID != nil && o.CreatedAt.Before(olderThan) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok {
		return &p, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryProducts) ListActive(context.Context) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []model.Product
	for _, p := range r.s.products {
		if p.Active {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memoryProducts) Upsert(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := *product
	p.Currency = strings.ToLower(p.Currency)
	r.s.products[p.ID] = p
	return nil
}

type memoryEvents struct{ s *MemoryStore }

func (r memoryEvents) CreateIfAbsent(_ context.Context, event *model.PaymentEvent) (repository.InsertOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.InsertErr != nil {
		return repository.InsertFailed, r.s.InsertErr
	}
	if _, exists := r.s.events[event.StripeEventID]; exists {
		return repository.InsertDuplicate, nil
	}
	r.s.nextID++
	e := *event
	e.ID = r.s.nextID
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	r.s.events[e.StripeEventID] = e
	event.ID = e.ID
	return repository.InsertCreated, nil
}

func (r memoryEvents) GetByEventID(_ context.Context, eventID string) (*model.PaymentEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[eventID]; ok {
		return &e, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (r memoryEvents) MarkRepaired(_ context.Context, eventID, orderID string, t *model.Transition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.RepairErr != nil {
		return 0, r.s.RepairErr
	}
	e, ok := r.s.events[eventID]
	if !ok {
		return 0, domainErrors.ErrNotFound
	}
	e.OrderID = &orderID
	e.Orphaned = false
	e.OrphanReason = nil
	r.s.events[eventID] = e
	if t == nil {
		return 0, nil
	}
	return r.s.applyLocked(orderID, *t), nil
}

func (r memoryEvents) DeleteReceivedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, e := range r.s.events {
		if e.ReceivedAt.Before(cutoff) {
			delete(r.s.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r memoryEvents) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, e := range r.s.events {
		if e.OrderID == nil {
			continue
		}
		if o, ok := r.s.orders[*e.OrderID]; ok && o.UserID == userID {
			delete(r.s.events, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ repository.Factory = (*MemoryStore)(nil)
