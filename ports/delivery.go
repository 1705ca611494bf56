package ports

import "context"

// Deliverer pushes finished reports to the user
type Deliverer interface {
	SendPhoto(ctx context.Context, path string, caption string) error
	SendMessage(ctx context.Context, text string) error
}
