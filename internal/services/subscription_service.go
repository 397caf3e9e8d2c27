package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caixa/internal/core"
	"caixa/internal/storage"
)

// SubscriptionService derives the access-control state from the raw
// billing profile. The profile itself is written elsewhere (payment
// provider callbacks, admin); this service only reads it.
type SubscriptionService struct {
	profiles ProfileReader
	now      func() time.Time
}

func NewSubscriptionService(profiles ProfileReader) *SubscriptionService {
	return &SubscriptionService{
		profiles: profiles,
		now:      time.Now,
	}
}

// Access returns the derived subscription state for one account. A
// missing profile fails closed to the blocking expirado state; any
// other read failure propagates.
func (s *SubscriptionService) Access(ctx context.Context, accountID string) (core.AccessState, error) {
	if accountID == "" {
		return core.AccessState{}, ErrNotAuthenticated
	}

	profile, err := s.profiles.GetSubscriptionProfile(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.DeriveAccessState(core.SubscriptionProfile{ID: accountID}, s.now()), nil
	}
	if err != nil {
		return core.AccessState{}, fmt.Errorf("read subscription profile: %w", err)
	}
	return core.DeriveAccessState(profile, s.now()), nil
}
