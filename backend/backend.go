// Package backend is the persistence capability behind the store. Remote talks
// to MongoDB, Local keeps JSON blobs in a key-value store.
package backend

import (
	"context"

	"leviro/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "backend")

// ErrNotFound is returned when an update or delete addresses a missing row.
var ErrNotFound = errors.New("not found")

type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]models.Order, error)
	InsertOrder(ctx context.Context, o models.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error

	// LoadCredentials reports ok=false when no credentials were ever saved.
	LoadCredentials(ctx context.Context) (creds models.Credentials, ok bool, err error)
	SaveCredentials(ctx context.Context, creds models.Credentials) error
}

// IsNotFound unwraps err and reports whether it is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
