// Package store is the state container of the shop. It owns the catalog, the
// orders, the shopper carts and the toast board, and it decides which backend
// a mutation goes to.
//
// Every mutation of products, orders or credentials is sent to the active
// backend first and applied in memory only once the backend confirms it. The
// active backend is the remote one after a successful Load, and the local one
// otherwise. Failures leave the state untouched and show an error toast.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leviro/backend"
	"leviro/cart"
	"leviro/models"
	"leviro/toast"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "store")

var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownSize        = errors.New("size not offered for this product")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrInvalidCredentials = errors.New("current username or password is incorrect")
)

// AdminAudience receives the toasts of admin actions. Shopper toasts go to the
// shopper's session id.
const AdminAudience = "admin"

// Default admin login, used until credentials are saved.
const (
	DefaultUsername = "admin"
	DefaultPassword = "1234"
)

// Event types delivered to subscribers. Toast events use the toast package
// names.
const (
	EventStatus   = "status.changed"
	EventProducts = "products.changed"
	EventOrders   = "orders.changed"
	EventCart     = "cart.changed"
)

// Event tells subscribers which part of the state changed. Session is set for
// cart and toast events and names the only audience that should see them.
type Event struct {
	Type    string        `json:"type"`
	Session string        `json:"-"`
	Toast   *models.Toast `json:"toast,omitempty"`
}

// Notifier is told about order lifecycle changes after they are persisted.
type Notifier interface {
	OrderPlaced(ctx context.Context, o models.Order) error
	OrderStatusChanged(ctx context.Context, id string, status models.OrderStatus) error
}

type Option func(*Store)

func WithToastTTL(d time.Duration) Option {
	return func(s *Store) { s.toastTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCatalog replaces the products served when nothing is persisted.
func WithCatalog(products []models.Product) Option {
	return func(s *Store) { s.catalog = products }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

type Store struct {
	remote backend.Backend
	local  *backend.Local

	mu        sync.RWMutex
	useRemote bool
	connected bool
	loading   bool
	products  []models.Product
	orders    []models.Order
	creds     models.Credentials
	defaults  models.Credentials

	cartMu   sync.Mutex
	carts    map[string]*cart.Cart
	checkout map[string]struct{}

	toasts    *toast.Board
	listenMu  sync.RWMutex
	listeners []func(Event)

	toastTTL time.Duration
	now      func() time.Time
	catalog  []models.Product
	notifier Notifier
	cost     int
}

// New creates the store. remote may be nil when no remote backend is
// configured; the store then stays disconnected.
func New(remote backend.Backend, local *backend.Local, opts ...Option) *Store {
	s := &Store{
		remote:   remote,
		local:    local,
		loading:  true,
		carts:    make(map[string]*cart.Cart),
		checkout: make(map[string]struct{}),
		now:      time.Now,
		catalog:  DefaultCatalog(),
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.cost)
	if err != nil {
		panic(errors.Wrap(err, "hash default password"))
	}
	s.defaults = models.Credentials{Username: DefaultUsername, PasswordHash: string(hash)}
	s.creds = s.defaults

	s.toasts = toast.NewBoard(s.toastTTL)
	s.toasts.Listen(func(e toast.Event) {
		t := e.Toast
		s.emit(Event{Type: e.Type, Session: t.Audience, Toast: &t})
	})
	return s
}

// Subscribe registers fn for every state change. fn runs on the goroutine that
// made the change and must not block.
func (s *Store) Subscribe(fn func(Event)) {
	s.listenMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenMu.Unlock()
}

func (s *Store) emit(e Event) {
	s.listenMu.RLock()
	listeners := s.listeners
	s.listenMu.RUnlock()
	for _, fn := range listeners {
		fn(e)
	}
}

// Close stops pending toast timers.
func (s *Store) Close() {
	s.toasts.Reset()
}

// Load fetches products and orders from the remote backend concurrently. On
// success the store becomes connected and uses the remote backend from then on.
// Otherwise it returns the remote error and, unless an earlier Load connected,
// serves the locally persisted products (or the default catalog) and orders.
// The store is usable either way.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	products, orders, err := s.fetchRemote(ctx)
	if err == nil {
		s.mu.Lock()
		s.connected = true
		s.useRemote = true
		s.products = products
		s.orders = orders
		s.mu.Unlock()

		log.WithFields(logrus.Fields{"products": len(products), "orders": len(orders)}).Info("loaded from remote backend")
		s.loadCredentials(ctx, s.remote)
		s.emit(Event{Type: EventProducts})
		s.emit(Event{Type: EventOrders})
		return nil
	}

	if s.Connected() {
		// Once connected the remote stays the active backend; a failed
		// reload keeps what was loaded before.
		log.WithError(err).Warn("reload from remote backend failed, keeping current state")
		return err
	}

	log.WithError(err).Warn("remote backend unavailable, using local storage")
	products, orders = s.fetchLocal(ctx)
	s.mu.Lock()
	s.useRemote = false
	s.products = products
	s.orders = orders
	s.mu.Unlock()

	s.loadCredentials(ctx, s.local)
	s.emit(Event{Type: EventProducts})
	s.emit(Event{Type: EventOrders})
	return err
}

func (s *Store) fetchRemote(ctx context.Context) ([]models.Product, []models.Order, error) {
	if s.remote == nil {
		return nil, nil, errors.New("no remote backend configured")
	}
	var (
		products []models.Product
		orders   []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.remote.ListProducts(gctx)
		return errors.Wrap(err, "load products")
	})
	g.Go(func() error {
		var err error
		orders, err = s.remote.ListOrders(gctx)
		return errors.Wrap(err, "load orders")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return products, orders, nil
}

func (s *Store) fetchLocal(ctx context.Context) ([]models.Product, []models.Order) {
	products, err := s.local.ListProducts(ctx)
	if err != nil {
		log.WithError(err).Warn("local products unreadable")
	}
	if len(products) == 0 {
		products = append([]models.Product(nil), s.catalog...)
		// Local edits address these rows, so they have to exist in storage.
		if err := s.local.ReplaceProducts(ctx, products); err != nil {
			log.WithError(err).Warn("could not persist default catalog")
		}
	}
	orders, err := s.local.ListOrders(ctx)
	if err != nil {
		log.WithError(err).Warn("local orders unreadable")
		orders = []models.Order{}
	}
	return products, orders
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.emit(Event{Type: EventStatus})
}

// backend returns the backend mutations go to and whether it is the local one.
func (s *Store) backend() (backend.Backend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.useRemote {
		return s.remote, false
	}
	return s.local, true
}

func (s *Store) fail(audience, action string, err error) {
	log.WithError(err).Error(action)
	s.toasts.Show(audience, fmt.Sprintf("%s: %v", action, errors.Cause(err)), models.ToastError)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Connected reports whether a remote read has succeeded. It never goes back to
// false.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product{}, s.products...)
}

func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], true
	}
	return models.Product{}, false
}

func (s *Store) productIndex(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// Orders returns the orders, newest first.
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order{}, s.orders...)
}

func (s *Store) Order(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.orderIndex(id); i >= 0 {
		return s.orders[i], true
	}
	return models.Order{}, false
}

func (s *Store) orderIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ShowToast(audience, message string, kind models.ToastKind) models.Toast {
	return s.toasts.Show(audience, message, kind)
}

// Toasts returns the visible toasts of audience.
func (s *Store) Toasts(audience string) []models.Toast {
	return s.toasts.List(audience)
}

// DismissToast removes toast id if it belongs to audience.
func (s *Store) DismissToast(audience, id string) bool {
	return s.toasts.Dismiss(audience, id)
}
