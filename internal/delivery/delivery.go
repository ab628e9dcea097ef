// Package delivery defines the contract every transport entry point satisfies.
package delivery

import "context"

// Delivery is a serving surface (HTTP today) started by the application runner.
type Delivery interface {
	// Serve blocks until the delivery stops or the context is cancelled.
	Serve(ctx context.Context) error
}
