package store

import (
	"context"
	"strconv"
	"sync"

	"leviro/backend"
	"leviro/models"
)

// fakeBackend is an in-memory remote. Setting err makes every call fail.
type fakeBackend struct {
	mu       sync.Mutex
	products []models.Product
	orders   []models.Order
	creds    *models.Credentials
	err      error
	nextID   int

	onInsertOrder func()
}

var _ backend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeBackend) ListProducts(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeBackend) InsertProduct(_ context.Context, p models.Product) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Product{}, f.err
	}
	f.nextID++
	p.ID = "remote-" + strconv.Itoa(f.nextID)
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Product{}, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i] = patch.Apply(f.products[i])
			return f.products[i], nil
		}
	}
	return models.Product{}, backend.ErrNotFound
}

func (f *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func (f *fakeBackend) ListOrders(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeBackend) InsertOrder(_ context.Context, o models.Order) error {
	if f.onInsertOrder != nil {
		f.onInsertOrder()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.orders = append([]models.Order{o}, f.orders...)
	return nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return nil
		}
	}
	return backend.ErrNotFound
}

func (f *fakeBackend) LoadCredentials(context.Context) (models.Credentials, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Credentials{}, false, f.err
	}
	if f.creds == nil {
		return models.Credentials{}, false, nil
	}
	return *f.creds, true, nil
}

func (f *fakeBackend) SaveCredentials(_ context.Context, c models.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.creds = &c
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []models.OrderStatus
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o models.Order) error {
	n.mu.Lock()
	n.placed = append(n.placed, o.ID)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, _ string, s models.OrderStatus) error {
	n.mu.Lock()
	n.changed = append(n.changed, s)
	n.mu.Unlock()
	return nil
}
