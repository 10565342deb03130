package models

import "time"

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is a transient notification. Audience is the shopper session or admin
// group it is shown to.
type Toast struct {
	ID        string    `json:"id"`
	Audience  string    `json:"-"`
	Message   string    `json:"message"`
	Kind      ToastKind `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
