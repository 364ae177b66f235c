// Package identity issues and persists the per-device identity used as the
// cart's partition key for anonymous sessions.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"

	"storefront-checkout/internal/domain"
)

type Store interface {
	Save(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
}

type Service struct {
	store  Store
	logger *log.Logger
}

// New builds the identity service. A nil store means no persistence is
// available; EnsureDeviceID then degrades instead of failing requests.
func New(store Store, logger *log.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// EnsureDeviceID returns the device identity for a request. An existing value
// is returned unchanged, so repeated calls with the same persisted identity
// are idempotent and a live identity is never regenerated. When no value
// exists yet, a fresh opaque token is generated and persisted. Without a
// working store the empty string is returned together with
// ErrIdentityUnavailable; callers skip identity-dependent operations.
func (s *Service) EnsureDeviceID(ctx context.Context, existing string) (string, error) {
	existing = strings.TrimSpace(existing)
	if existing != "" {
		if s.store != nil {
			if err := s.store.Touch(ctx, existing); err != nil {
				s.logger.Printf("touch device identity %s: %v", existing, err)
			}
		}
		return existing, nil
	}

	if s.store == nil {
		return "", domain.ErrIdentityUnavailable
	}

	id, err := randomID()
	if err != nil {
		return "", fmt.Errorf("generate device identity: %w", err)
	}
	if err := s.store.Save(ctx, id); err != nil {
		return "", fmt.Errorf("persist device identity: %w", err)
	}
	return id, nil
}

func randomID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	// UUID v4 (random).
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3],
		b[4], b[5],
		b[6], b[7],
		b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15],
	), nil
}
