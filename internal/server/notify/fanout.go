package notify

import (
	"context"
	"errors"
)

// Sink is the delivery contract shared by every notifier in this package.
type Sink interface {
	SendVerification(ctx context.Context, email, rawToken, accountID string) (string, error)
}

// Fanout delivers to every sink in order. The first non-empty deliveryRef
// wins and errors are joined; one sink failing does not stop the others.
type Fanout []Sink

func (f Fanout) SendVerification(ctx context.Context, email, rawToken, accountID string) (string, error) {
	var (
		ref  string
		errs []error
	)
	for _, s := range f {
		r, err := s.SendVerification(ctx, email, rawToken, accountID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ref == "" {
			ref = r
		}
	}
	return ref, errors.Join(errs...)
}
