package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"scanpay/internal/models"
)

// InMemoryStore keeps every entity in maps guarded by one mutex. It backs the
// server when no database is configured and is used by the service tests.
type InMemoryStore struct {
	users         map[string]*models.User
	stores        map[string]*models.Store
	orders        map[string]*models.Order
	receipts      map[string]*models.Receipt
	receiptsByOrd map[string]string
	verifications []*models.VerificationRecord
	mutex         sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[string]*models.User),
		stores:        make(map[string]*models.Store),
		orders:        make(map[string]*models.Order),
		receipts:      make(map[string]*models.Receipt),
		receiptsByOrd: make(map[string]string),
	}
}

func (s *InMemoryStore) Users() UserRepository                 { return memoryUsers{s} }
func (s *InMemoryStore) Stores() StoreRepository               { return memoryStores{s} }
func (s *InMemoryStore) Orders() OrderRepository               { return memoryOrders{s} }
func (s *InMemoryStore) Receipts() ReceiptRepository           { return memoryReceipts{s} }
func (s *InMemoryStore) Verifications() VerificationRepository { return memoryVerifications{s} }

// PutStore inserts or replaces a store.
func (s *InMemoryStore) PutStore(store *models.Store) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cp := *store
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.stores[cp.ID] = &cp
}

type memoryUsers struct{ s *InMemoryStore }

func (m memoryUsers) Create(_ context.Context, user *models.User) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	return m.s.insertUser(user)
}

func (m memoryUsers) CreateWithStore(_ context.Context, user *models.User, store *models.Store) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if err := m.s.insertUser(user); err != nil {
		return err
	}
	store.OwnerID = user.ID
	stamp(&store.CreatedAt, &store.UpdatedAt)
	cp := *store
	m.s.stores[cp.ID] = &cp
	return nil
}

func (s *InMemoryStore) insertUser(user *models.User) error {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	cp := *user
	s.users[cp.ID] = &cp
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	user, exists := m.s.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

type memoryStores struct{ s *InMemoryStore }

func (m memoryStores) GetByID(_ context.Context, id string) (*models.Store, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	store, exists := m.s.stores[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *store
	return &cp, nil
}

func (m memoryStores) GetByOwner(_ context.Context, ownerID string) (*models.Store, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, store := range m.s.stores {
		if store.OwnerID == ownerID {
			cp := *store
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m memoryStores) ListOpen(_ context.Context) ([]*models.Store, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var stores []*models.Store
	for _, store := range m.s.stores {
		if store.IsOpen() {
			cp := *store
			stores = append(stores, &cp)
		}
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (m memoryStores) UpdateSettings(_ context.Context, ownerID string, status, logoURL *string) (*models.Store, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	for _, store := range m.s.stores {
		if store.OwnerID != ownerID {
			continue
		}
		if status != nil {
			store.Status = *status
		}
		if logoURL != nil {
			store.LogoURL = *logoURL
		}
		store.UpdatedAt = time.Now()
		cp := *store
		return &cp, nil
	}
	return nil, ErrNotFound
}

type memoryOrders struct{ s *InMemoryStore }

func (m memoryOrders) Create(_ context.Context, order *models.Order) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.orders[order.ID]; exists {
		return ErrDuplicate
	}
	stamp(&order.CreatedAt, &order.UpdatedAt)
	cp := *order
	m.s.orders[cp.ID] = &cp
	return nil
}

func (m memoryOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	order, exists := m.s.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m memoryOrders) MarkPaid(_ context.Context, id, paymentID, method string, at time.Time) (bool, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	order, exists := m.s.orders[id]
	if !exists || order.Status != models.OrderStatusCreated {
		return false, nil
	}
	order.Status = models.OrderStatusPaid
	order.ProviderPaymentID = paymentID
	order.Method = method
	order.PaidAt = &at
	order.UpdatedAt = at
	return true, nil
}

func (m memoryOrders) MarkFailed(_ context.Context, id string) (bool, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	order, exists := m.s.orders[id]
	if !exists || order.Status != models.OrderStatusCreated {
		return false, nil
	}
	order.Status = models.OrderStatusFailed
	order.UpdatedAt = time.Now()
	return true, nil
}

func (m memoryOrders) ListStale(_ context.Context, createdBefore time.Time, limit int) ([]*models.Order, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var orders []*models.Order
	for _, order := range m.s.orders {
		if order.Status == models.OrderStatusCreated && order.CreatedAt.Before(createdBefore) {
			cp := *order
			orders = append(orders, &cp)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

type memoryReceipts struct{ s *InMemoryStore }

func (m memoryReceipts) CreateOrGet(_ context.Context, receipt *models.Receipt) (*models.Receipt, bool, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if id, exists := m.s.receiptsByOrd[receipt.OrderID]; exists {
		cp := *m.s.receipts[id]
		return &cp, false, nil
	}
	cp := *receipt
	m.s.receipts[cp.ID] = &cp
	m.s.receiptsByOrd[cp.OrderID] = cp.ID
	out := cp
	return &out, true, nil
}

func (m memoryReceipts) GetByID(_ context.Context, id string) (*models.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	receipt, exists := m.s.receipts[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *receipt
	return &cp, nil
}

func (m memoryReceipts) GetByOrderID(_ context.Context, orderID string) (*models.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	id, exists := m.s.receiptsByOrd[orderID]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *m.s.receipts[id]
	return &cp, nil
}

func (m memoryReceipts) Consume(_ context.Context, req models.ConsumeRequest) (bool, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	receipt, exists := m.s.receipts[req.ReceiptID]
	if !exists || receipt.Consumed {
		return false, nil
	}
	at, staff, store := req.At, req.StaffID, req.StoreID
	receipt.Consumed = true
	receipt.ConsumedAt = &at
	receipt.ConsumedBy = &staff
	receipt.ConsumedStoreID = &store
	return true, nil
}

func (m memoryReceipts) consumedByStore(storeID string) []*models.Receipt {
	var receipts []*models.Receipt
	for _, r := range m.s.receipts {
		if r.Consumed && r.ConsumedStoreID != nil && *r.ConsumedStoreID == storeID {
			cp := *r
			receipts = append(receipts, &cp)
		}
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].ConsumedAt.Before(*receipts[j].ConsumedAt) })
	return receipts
}

func (m memoryReceipts) ListConsumedByStore(_ context.Context, storeID string, since time.Time) ([]*models.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var out []*models.Receipt
	for _, r := range m.consumedByStore(storeID) {
		if !r.ConsumedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m memoryReceipts) CountConsumedByStore(_ context.Context, storeID string) (int64, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return int64(len(m.consumedByStore(storeID))), nil
}

func (m memoryReceipts) RecentConsumedByStore(_ context.Context, storeID string, limit int) ([]*models.Receipt, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	all := m.consumedByStore(storeID)
	var out []*models.Receipt
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type memoryVerifications struct{ s *InMemoryStore }

func (m memoryVerifications) Append(_ context.Context, record *models.VerificationRecord) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	cp := *record
	m.s.verifications = append(m.s.verifications, &cp)
	return nil
}

func (m memoryVerifications) ListByStore(_ context.Context, storeID string, limit int) ([]*models.VerificationRecord, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var out []*models.VerificationRecord
	for i := len(m.s.verifications) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if rec := m.s.verifications[i]; rec.StoreID == storeID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memoryVerifications) ListByReceipt(_ context.Context, receiptID string) ([]*models.VerificationRecord, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var out []*models.VerificationRecord
	for _, rec := range m.s.verifications {
		if rec.ReceiptID == receiptID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}
