package backend

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"leviro/cart"
	"leviro/kv"
	"leviro/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Keys of the blobs Local keeps in its KV.
const (
	ProductsKey = "products"
	OrdersKey   = "orders"
	CartKey     = "cart"
)

// Local persists everything as JSON blobs in a kv.KV. It is the fallback
// backend when the remote one is unreachable, and it always owns the carts.
type Local struct {
	mu  sync.Mutex
	kv  kv.KV
	now func() time.Time
}

func NewLocal(store kv.KV) *Local {
	return &Local{kv: store, now: time.Now}
}

// CartKeyFor is the key of a session's cart. The empty session uses the bare
// key.
func CartKeyFor(sid string) string {
	if sid == "" {
		return CartKey
	}
	return CartKey + ":" + sid
}

func (l *Local) read(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", key)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

func (l *Local) write(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(l.kv.Set(ctx, key, string(raw)), "write %s", key)
}

func (l *Local) products(ctx context.Context) ([]models.Product, error) {
	out := []models.Product{}
	_, err := l.read(ctx, ProductsKey, &out)
	return out, err
}

func (l *Local) orders(ctx context.Context) ([]models.Order, error) {
	out := []models.Order{}
	_, err := l.read(ctx, OrdersKey, &out)
	return out, err
}

func (l *Local) ListProducts(ctx context.Context) ([]models.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.products(ctx)
}

// ReplaceProducts overwrites the persisted catalog.
func (l *Local) ReplaceProducts(ctx context.Context, products []models.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(ctx, ProductsKey, products)
}

func (l *Local) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = l.now().UTC()
	}
	p.Sizes = models.SortSizes(p.Sizes)
	if err := l.write(ctx, ProductsKey, append(list, p)); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (l *Local) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i] = patch.Apply(list[i])
		if err := l.write(ctx, ProductsKey, list); err != nil {
			return models.Product{}, err
		}
		return list[i], nil
	}
	return models.Product{}, ErrNotFound
}

func (l *Local) DeleteProduct(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.products(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			return l.write(ctx, ProductsKey, append(list[:i], list[i+1:]...))
		}
	}
	return ErrNotFound
}

// ListOrders returns the persisted orders, newest first.
func (l *Local) ListOrders(ctx context.Context) ([]models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.orders(ctx)
}

// ReplaceOrders overwrites the persisted order list.
func (l *Local) ReplaceOrders(ctx context.Context, orders []models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(ctx, OrdersKey, orders)
}

// InsertOrder prepends o so the list stays newest first.
func (l *Local) InsertOrder(ctx context.Context, o models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.orders(ctx)
	if err != nil {
		return err
	}
	return l.write(ctx, OrdersKey, append([]models.Order{o}, list...))
}

func (l *Local) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.orders(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			return l.write(ctx, OrdersKey, list)
		}
	}
	return ErrNotFound
}

func (l *Local) LoadCredentials(ctx context.Context) (models.Credentials, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var creds models.Credentials
	ok, err := l.read(ctx, models.CredentialsKey, &creds)
	if err != nil || !ok {
		return models.Credentials{}, false, err
	}
	return creds, true, nil
}

func (l *Local) SaveCredentials(ctx context.Context, creds models.Credentials) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = l.now().UTC()
	}
	return l.write(ctx, models.CredentialsKey, creds)
}

// LoadCart returns the persisted cart of session sid; an absent or unreadable
// blob is an empty cart.
func (l *Local) LoadCart(ctx context.Context, sid string) []models.CartItem {
	raw, ok, err := l.kv.Get(ctx, CartKeyFor(sid))
	if err != nil {
		log.WithError(err).WithField("sid", sid).Warn("cart read failed")
		return nil
	}
	if !ok {
		return nil
	}
	items, err := cart.Decode(raw)
	if err != nil {
		log.WithError(err).WithField("sid", sid).Warn("discarding corrupt cart")
		return nil
	}
	return items
}

func (l *Local) SaveCart(ctx context.Context, sid string, items []models.CartItem) error {
	raw, err := cart.Encode(items)
	if err != nil {
		return err
	}
	return errors.Wrap(l.kv.Set(ctx, CartKeyFor(sid), raw), "write cart")
}
