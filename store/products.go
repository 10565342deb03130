package store

import (
	"context"

	"leviro/models"

	"github.com/pkg/errors"
)

// AddProduct stores a new product through the active backend, which assigns
// its id, and appends it to the catalog.
func (s *Store) AddProduct(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	p := models.Product{
		Name:        draft.Name,
		Price:       draft.Price,
		Description: draft.Description,
		Image:       draft.Image,
		Sizes:       models.SortSizes(draft.Sizes),
		CreatedAt:   s.now().UTC(),
	}

	b, _ := s.backend()
	p, err := b.InsertProduct(ctx, p)
	if err != nil {
		s.fail(AdminAudience, "Failed to add product", err)
		return models.Product{}, errors.Wrap(err, "add product")
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()
	s.emit(Event{Type: EventProducts})
	s.toasts.Show(AdminAudience, "Product added successfully", models.ToastSuccess)
	return p, nil
}

// UpdateProduct applies patch to product id and reports whether it was saved.
// The in-memory copy is replaced by the row the backend returns.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) bool {
	if _, ok := s.Product(id); !ok {
		return false
	}

	b, _ := s.backend()
	p, err := b.UpdateProduct(ctx, id, patch)
	if err != nil {
		s.fail(AdminAudience, "Failed to update product", err)
		return false
	}

	s.mu.Lock()
	if i := s.productIndex(id); i >= 0 {
		s.products[i] = p
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventProducts})
	s.toasts.Show(AdminAudience, "Product updated successfully", models.ToastSuccess)
	return true
}

// DeleteProduct removes product id once the backend confirmed the delete.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := s.Product(id); !ok {
		return ErrNotFound
	}

	b, local := s.backend()
	if err := b.DeleteProduct(ctx, id); err != nil {
		s.fail(AdminAudience, "Failed to delete product", err)
		return errors.Wrap(err, "delete product")
	}

	s.mu.Lock()
	if i := s.productIndex(id); i >= 0 {
		s.products = append(s.products[:i:i], s.products[i+1:]...)
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventProducts})

	msg := "Product deleted"
	if local {
		msg += " (local only)"
	}
	s.toasts.Show(AdminAudience, msg, models.ToastSuccess)
	return nil
}
