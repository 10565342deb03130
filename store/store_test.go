package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leviro/backend"
	"leviro/forms"
	"leviro/kv"
	"leviro/models"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	errBoom      = errors.New("connection refused")
	fixedNow     = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
)

var customer = models.Customer{
	Name:     "Rahim Uddin",
	Mobile:   "01712345678",
	District: "Dhaka",
	Thana:    "Gulshan",
	Address:  "House 1, Road 2",
}

func newStore(t *testing.T, remote backend.Backend, opts ...Option) (*Store, *backend.Local) {
	t.Helper()
	local := backend.NewLocal(kv.NewMemory())
	opts = append([]Option{
		WithBcryptCost(bcrypt.MinCost),
		WithToastTTL(time.Hour),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	s := New(remote, local, opts...)
	t.Cleanup(s.Close)
	return s, local
}

func connectedStore(t *testing.T, opts ...Option) (*Store, *fakeBackend) {
	t.Helper()
	remote := &fakeBackend{products: DefaultCatalog()}
	s, _ := newStore(t, remote, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s, remote
}

func lastToast(t *testing.T, s *Store, audience string) models.Toast {
	t.Helper()
	list := s.Toasts(audience)
	require.NotEmpty(t, list)
	return list[len(list)-1]
}

func productIDs(products []models.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestLoadConnected(t *testing.T) {
	s, _ := connectedStore(t)

	assert.True(t, s.Connected())
	assert.False(t, s.Loading())
	if diff := cmp.Diff(DefaultCatalog(), s.Products(), decimalEqual); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, s.Orders())
}

func TestLoadEmptyRemote(t *testing.T) {
	s, _ := newStore(t, &fakeBackend{})
	require.NoError(t, s.Load(context.Background()))

	assert.True(t, s.Connected())
	assert.Empty(t, s.Products())
	assert.NotNil(t, s.Products())
}

func TestLoadFallsBackToCatalog(t *testing.T) {
	ctx := context.Background()
	s, local := newStore(t, &fakeBackend{err: errBoom})
	assert.True(t, s.Loading())

	err := s.Load(ctx)
	require.Error(t, err)
	assert.False(t, s.Connected())
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"1", "2", "3"}, productIDs(s.Products()))

	persisted, err := local.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
}

func TestLoadFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	s, local := newStore(t, nil)

	require.NoError(t, local.ReplaceProducts(ctx, []models.Product{{ID: "x", Name: "Saved"}}))
	require.NoError(t, local.InsertOrder(ctx, models.Order{ID: "ORD-000001", Status: models.StatusPending}))

	require.Error(t, s.Load(ctx))
	assert.Equal(t, []string{"x"}, productIDs(s.Products()))
	require.Len(t, s.Orders(), 1)
	assert.Equal(t, "ORD-000001", s.Orders()[0].ID)
}

func TestConnectedNeverReverts(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)

	remote.fail(errBoom)
	require.Error(t, s.Load(ctx))
	assert.True(t, s.Connected())
	assert.Len(t, s.Products(), 3, "a failed reload keeps the loaded catalog")

	draft := models.ProductDraft{Name: "x", Price: decimal.NewFromInt(1), Sizes: []models.Size{models.SizeM}}
	_, err := s.AddProduct(ctx, draft)
	require.Error(t, err, "writes still go to the remote backend")

	remote.fail(nil)
	p, err := s.AddProduct(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "remote-1", p.ID)
	assert.Len(t, remote.products, 4)
}

func TestAddToCartMergesLines(t *testing.T) {
	ctx := context.Background()
	s, _ := connectedStore(t)
	white, _ := s.Product("1")
	navy, _ := s.Product("2")

	adds := []struct {
		p    models.Product
		size models.Size
	}{
		{white, models.SizeM}, {navy, models.SizeL}, {white, models.SizeM},
		{white, models.SizeXL}, {white, models.SizeM}, {navy, models.SizeL},
	}
	for _, a := range adds {
		_, err := s.AddToCart(ctx, "sid", a.p, a.size)
		require.NoError(t, err)
	}

	items := s.Cart(ctx, "sid")
	require.Len(t, items, 3)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, 1, items[2].Quantity)
	assert.Equal(t, 6, s.CartCount(ctx, "sid"))
	assert.Equal(t, "Royal Navy Blue Silk Panjabi (L) added to cart", lastToast(t, s, "sid").Message)
}

func TestAddToCartUnknownSize(t *testing.T) {
	ctx := context.Background()
	s, _ := connectedStore(t)
	navy, _ := s.Product("2")

	_, err := s.AddToCart(ctx, "sid", navy, models.SizeXXL)
	assert.Equal(t, ErrUnknownSize, err)
	assert.Empty(t, s.Cart(ctx, "sid"))
}

func TestCartQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := connectedStore(t)
	white, _ := s.Product("1")

	line, err := s.AddToCart(ctx, "sid", white, models.SizeS)
	require.NoError(t, err)

	s.UpdateCartQuantity(ctx, "sid", line.ID, 4)
	assert.Equal(t, 4, s.CartCount(ctx, "sid"))
	assert.True(t, s.CartTotal(ctx, "sid").Equal(decimal.NewFromInt(11400)))

	s.RemoveFromCart(ctx, "sid", "missing")
	assert.Len(t, s.Cart(ctx, "sid"), 1)

	s.UpdateCartQuantity(ctx, "sid", line.ID, 0)
	assert.Empty(t, s.Cart(ctx, "sid"))
}

func TestCartsAreSeparateAndPersisted(t *testing.T) {
	ctx := context.Background()
	remote := &fakeBackend{products: DefaultCatalog()}
	local := backend.NewLocal(kv.NewMemory())
	s := New(remote, local, WithBcryptCost(bcrypt.MinCost))
	defer s.Close()
	require.NoError(t, s.Load(ctx))

	cream, _ := s.Product("3")
	_, err := s.AddToCart(ctx, "a", cream, models.SizeM)
	require.NoError(t, err)
	assert.Empty(t, s.Cart(ctx, "b"))

	reopened := New(remote, local, WithBcryptCost(bcrypt.MinCost))
	defer reopened.Close()
	if diff := cmp.Diff(s.Cart(ctx, "a"), reopened.Cart(ctx, "a"), decimalEqual); diff != "" {
		t.Errorf("reloaded cart mismatch (-want +got):\n%s", diff)
	}

	s.ClearCart(ctx, "a")
	assert.Empty(t, local.LoadCart(ctx, "a"))
}

func TestPlaceOrderTotal(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	s, remote := connectedStore(t, WithNotifier(notifier))
	white, _ := s.Product("1")
	cheap := models.Product{ID: "9", Name: "Cap", Price: decimal.NewFromInt(1000), Sizes: []models.Size{models.SizeM}}

	_, err := s.AddToCart(ctx, "sid", white, models.SizeL)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, "sid", cheap, models.SizeM)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, "sid", cheap, models.SizeM)
	require.NoError(t, err)

	id, err := s.PlaceOrder(ctx, "sid", customer)
	require.NoError(t, err)
	assert.Equal(t, OrderID(fixedNow), id)
	assert.True(t, strings.HasPrefix(id, "ORD-"))
	assert.Len(t, id, len("ORD-")+6)

	order, ok := s.Order(id)
	require.True(t, ok)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(4850)), order.Total.String())
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentCOD, order.Customer.PaymentMethod)
	assert.Len(t, order.Items, 2)

	assert.Empty(t, s.Cart(ctx, "sid"))
	assert.Len(t, remote.orders, 1)
	assert.Equal(t, orderPlacedMessage, lastToast(t, s, "sid").Message)
	assert.Equal(t, []string{id}, notifier.placed)
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "sid", white, models.SizeM)
	require.NoError(t, err)
	before := s.Cart(ctx, "sid")

	remote.fail(errBoom)
	id, err := s.PlaceOrder(ctx, "sid", customer)
	require.Error(t, err)
	assert.Empty(t, id)

	if diff := cmp.Diff(before, s.Cart(ctx, "sid"), decimalEqual); diff != "" {
		t.Errorf("cart changed (-want +got):\n%s", diff)
	}
	assert.Empty(t, s.Orders())

	toast := lastToast(t, s, "sid")
	assert.Equal(t, models.ToastError, toast.Kind)
	assert.Contains(t, toast.Message, "connection refused")
}

func TestPlaceOrderDisconnected(t *testing.T) {
	ctx := context.Background()
	s, local := newStore(t, nil)
	require.Error(t, s.Load(ctx))
	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "", white, models.SizeM)
	require.NoError(t, err)

	id, err := s.PlaceOrder(ctx, "", customer)
	require.NoError(t, err)

	persisted, err := local.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, id, persisted[0].ID)
	assert.Equal(t, id, s.Orders()[0].ID)
}

func TestPlaceOrderRejectsDoubleSubmit(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "sid", white, models.SizeM)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	remote.onInsertOrder = func() {
		once.Do(func() { close(started) })
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.PlaceOrder(ctx, "sid", customer)
		done <- err
	}()
	<-started

	_, err = s.PlaceOrder(ctx, "sid", customer)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, s.Orders(), 1)
}

func TestPlaceOrderKeepsLinesAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	white, _ := s.Product("1")
	navy, _ := s.Product("2")
	_, err := s.AddToCart(ctx, "sid", white, models.SizeM)
	require.NoError(t, err)

	remote.onInsertOrder = func() {
		remote.onInsertOrder = nil
		_, err := s.AddToCart(ctx, "sid", navy, models.SizeL)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, "sid", white, models.SizeM)
		require.NoError(t, err)
	}

	id, err := s.PlaceOrder(ctx, "sid", customer)
	require.NoError(t, err)
	order, ok := s.Order(id)
	require.True(t, ok)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)

	left := s.Cart(ctx, "sid")
	require.Len(t, left, 2)
	assert.Equal(t, "1", left[0].ProductID)
	assert.Equal(t, 1, left[0].Quantity)
	assert.Equal(t, "2", left[1].ProductID)
	assert.Equal(t, 1, left[1].Quantity)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	s, remote := connectedStore(t, WithNotifier(notifier))
	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "sid", white, models.SizeM)
	require.NoError(t, err)
	id, err := s.PlaceOrder(ctx, "sid", customer)
	require.NoError(t, err)

	assert.Equal(t, ErrNotFound, s.UpdateOrderStatus(ctx, "ORD-nope", models.StatusDelivered))
	assert.Equal(t, ErrInvalidStatus, s.UpdateOrderStatus(ctx, id, "Shipped"))

	remote.fail(errBoom)
	require.Error(t, s.UpdateOrderStatus(ctx, id, models.StatusDelivered))
	order, _ := s.Order(id)
	assert.Equal(t, models.StatusPending, order.Status)

	remote.fail(nil)
	require.NoError(t, s.UpdateOrderStatus(ctx, id, models.StatusDelivered))
	order, _ = s.Order(id)
	assert.Equal(t, models.StatusDelivered, order.Status)
	assert.Equal(t, []models.OrderStatus{models.StatusDelivered}, notifier.changed)
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()
	draft := models.ProductDraft{
		Name:        "Olive Panjabi",
		Price:       decimal.NewFromInt(3600),
		Description: "Linen blend",
		Image:       "https://example.com/olive.jpg",
		Sizes:       []models.Size{models.SizeXL, models.SizeM},
	}

	s, _ := connectedStore(t)
	p, err := s.AddProduct(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "remote-1", p.ID)
	assert.Equal(t, []models.Size{models.SizeM, models.SizeXL}, p.Sizes)
	assert.Equal(t, []string{"1", "2", "3", "remote-1"}, productIDs(s.Products()))
	assert.Equal(t, "Product added successfully", lastToast(t, s, AdminAudience).Message)

	offline, _ := newStore(t, nil)
	require.Error(t, offline.Load(ctx))
	p, err = offline.AddProduct(ctx, draft)
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.Len(t, offline.Products(), 4)
}

func TestAddProductFailure(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	remote.fail(errBoom)

	_, err := s.AddProduct(ctx, models.ProductDraft{Name: "x", Price: decimal.NewFromInt(1), Sizes: []models.Size{models.SizeM}})
	require.Error(t, err)
	assert.Len(t, s.Products(), 3)
	assert.Equal(t, "Failed to add product: connection refused", lastToast(t, s, AdminAudience).Message)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	price := decimal.NewFromInt(2999)

	assert.False(t, s.UpdateProduct(ctx, "missing", models.ProductPatch{Price: &price}))

	assert.True(t, s.UpdateProduct(ctx, "1", models.ProductPatch{Price: &price, Sizes: []models.Size{models.SizeL, models.SizeS}}))
	p, _ := s.Product("1")
	assert.True(t, p.Price.Equal(price))
	assert.Equal(t, []models.Size{models.SizeS, models.SizeL}, p.Sizes)

	remote.fail(errBoom)
	other := decimal.NewFromInt(1)
	assert.False(t, s.UpdateProduct(ctx, "1", models.ProductPatch{Price: &other}))
	p, _ = s.Product("1")
	assert.True(t, p.Price.Equal(price))
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)

	remote.fail(errBoom)
	require.Error(t, s.DeleteProduct(ctx, "2"))
	assert.Equal(t, []string{"1", "2", "3"}, productIDs(s.Products()))
	assert.Equal(t, models.ToastError, lastToast(t, s, AdminAudience).Kind)

	remote.fail(nil)
	require.NoError(t, s.DeleteProduct(ctx, "2"))
	assert.Equal(t, []string{"1", "3"}, productIDs(s.Products()))
	assert.Equal(t, "Product deleted", lastToast(t, s, AdminAudience).Message)

	assert.Equal(t, ErrNotFound, s.DeleteProduct(ctx, "2"))
}

func TestDeleteProductLocalOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, &fakeBackend{err: errBoom})
	require.Error(t, s.Load(ctx))

	require.NoError(t, s.DeleteProduct(ctx, "1"))
	assert.Equal(t, []string{"2", "3"}, productIDs(s.Products()))
	assert.Equal(t, "Product deleted (local only)", lastToast(t, s, AdminAudience).Message)
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)

	assert.True(t, s.Authenticate("admin", "1234"))
	assert.False(t, s.Authenticate("admin", "12345"))

	err := s.ChangeCredentials(ctx, models.CredentialsChange{CurrentUsername: "admin", CurrentPassword: "nope"})
	assert.Equal(t, ErrInvalidCredentials, err)

	err = s.ChangeCredentials(ctx, models.CredentialsChange{
		CurrentUsername: "admin", CurrentPassword: "1234",
		NewUsername: "owner", NewPassword: "abc", ConfirmPassword: "abc",
	})
	var ferrs forms.Errors
	require.True(t, errors.As(err, &ferrs))
	assert.Contains(t, ferrs, "newPassword")

	require.NoError(t, s.ChangeCredentials(ctx, models.CredentialsChange{
		CurrentUsername: "admin", CurrentPassword: "1234",
		NewUsername: " owner ", NewPassword: "s3cret", ConfirmPassword: "s3cret",
	}))
	assert.True(t, s.Authenticate("owner", "s3cret"))
	assert.False(t, s.Authenticate("admin", "1234"))

	require.NotNil(t, remote.creds)
	assert.Equal(t, "owner", remote.creds.Username)
	assert.NotEqual(t, "s3cret", remote.creds.PasswordHash)

	reopened, _ := newStore(t, remote)
	require.NoError(t, reopened.Load(ctx))
	assert.True(t, reopened.Authenticate("owner", "s3cret"))
}

func TestCredentialsPlainTextRow(t *testing.T) {
	remote := &fakeBackend{creds: &models.Credentials{Username: "shop", PasswordHash: "letmein"}}
	s, _ := newStore(t, remote)
	require.NoError(t, s.Load(context.Background()))

	assert.True(t, s.Authenticate("shop", "letmein"))
	assert.False(t, s.Authenticate("admin", "1234"))
}

func TestToastsExpire(t *testing.T) {
	s, _ := newStore(t, nil, WithToastTTL(30*time.Millisecond))

	first := s.ShowToast("sid", "x", "")
	assert.Equal(t, models.ToastSuccess, first.Kind)
	require.Len(t, s.Toasts("sid"), 1)

	assert.Eventually(t, func() bool { return len(s.Toasts("sid")) == 0 }, time.Second, 5*time.Millisecond)

	kept := s.ShowToast("sid", "y", models.ToastInfo)
	assert.True(t, s.DismissToast("sid", kept.ID))
	assert.False(t, s.DismissToast("sid", kept.ID))
}

func TestToastsStayWithTheirAudience(t *testing.T) {
	ctx := context.Background()
	s, remote := connectedStore(t)
	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "alice", white, models.SizeM)
	require.NoError(t, err)
	remote.fail(errBoom)
	_, err = s.AddProduct(ctx, models.ProductDraft{Name: "x", Price: decimal.NewFromInt(1), Sizes: []models.Size{models.SizeM}})
	require.Error(t, err)

	mine := s.Toasts("alice")
	require.Len(t, mine, 1)
	assert.Equal(t, "Premium White Cotton Panjabi (M) added to cart", mine[0].Message)
	assert.Empty(t, s.Toasts("bob"))
	assert.False(t, s.DismissToast("bob", mine[0].ID))
	assert.Len(t, s.Toasts("alice"), 1)

	admin := s.Toasts(AdminAudience)
	require.Len(t, admin, 1)
	assert.Contains(t, admin[0].Message, "connection refused")
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := connectedStore(t)

	var (
		mu     sync.Mutex
		events []Event
	)
	s.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	white, _ := s.Product("1")
	_, err := s.AddToCart(ctx, "sid", white, models.SizeM)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, EventCart, events[0].Type)
	assert.Equal(t, "sid", events[0].Session)
	assert.Equal(t, "toast.shown", events[1].Type)
	assert.Equal(t, "sid", events[1].Session)
	require.NotNil(t, events[1].Toast)
}

func TestOrderID(t *testing.T) {
	at := time.UnixMilli(1716206400123)
	assert.Equal(t, "ORD-400123", OrderID(at))
	assert.Equal(t, "ORD-000042", OrderID(time.UnixMilli(1000042)))
}
