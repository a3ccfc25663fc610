// Package store provides persistence for execution snapshots and the
// product catalog.
package store

import "errors"

// ErrNotFound is returned when a key has no record.
var ErrNotFound = errors.New("not found")

// Product is the catalog entity managed by the CRUD layer.
type Product struct {
	ID    string  `json:"id" dynamodbav:"PK"`
	Name  string  `json:"name" dynamodbav:"name"`
	Price float64 `json:"price" dynamodbav:"price"`
}
