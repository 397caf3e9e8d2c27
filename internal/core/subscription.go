package core

import (
	"strings"
	"time"
)

// SubscriptionStatus is the normalized access-control state derived
// from a profile's raw billing fields.
type SubscriptionStatus string

const (
	SubTrial     SubscriptionStatus = "trial"
	SubAtivo     SubscriptionStatus = "ativo"
	SubPendente  SubscriptionStatus = "pendente"
	SubEmAtraso  SubscriptionStatus = "em_atraso"
	SubCancelado SubscriptionStatus = "cancelado"
	SubExpirado  SubscriptionStatus = "expirado"
)

// DefaultTrialDays applies when a profile has a trial start but no
// explicit trial end or trial length.
const DefaultTrialDays = 14

// AccessState is the derived subscription view the presentation layer
// gates features on. Only SubExpirado blocks access; trial and
// pendente are full-access grace states.
type AccessState struct {
	Status             SubscriptionStatus
	Plan               string
	TrialDaysRemaining int
	Blocked            bool
}

// rawStatusAliases maps normalized raw status strings (pt and en,
// payment-provider spellings included) to a recognized status. Anything
// absent from this table fails closed to expirado.
var rawStatusAliases = map[string]SubscriptionStatus{
	"trial":     SubTrial,
	"trialing":  SubTrial,
	"ativo":     SubAtivo,
	"active":    SubAtivo,
	"pendente":  SubPendente,
	"pending":   SubPendente,
	"em_atraso": SubEmAtraso,
	"past_due":  SubEmAtraso,
	"atrasado":  SubEmAtraso,
	"cancelado": SubCancelado,
	"canceled":  SubCancelado,
	"cancelled": SubCancelado,
	"expirado":  SubExpirado,
	"expired":   SubExpirado,
}

// TrialEnd resolves the profile's trial end: the explicit timestamp
// when set, otherwise trial start plus the trial length (default 14
// days). Zero time when there is no trial at all.
func TrialEnd(p SubscriptionProfile) time.Time {
	if p.TrialEnd != nil {
		return *p.TrialEnd
	}
	if p.TrialStart == nil {
		return time.Time{}
	}
	days := p.TrialDays
	if days <= 0 {
		days = DefaultTrialDays
	}
	return p.TrialStart.AddDate(0, 0, days)
}

// TrialDaysRemaining counts whole days left in the trial window,
// rounding partial days up and never going below zero.
func TrialDaysRemaining(p SubscriptionProfile, now time.Time) int {
	end := TrialEnd(p)
	if end.IsZero() || !end.After(now) {
		return 0
	}
	remaining := end.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// DeriveAccessState normalizes a raw profile into an access state.
//
// The rules run in order, first match wins:
//  1. the owner flag forces ativo, non-expiring;
//  2. a recognized ativo with a past expiration date becomes expirado
//     (expiration always wins over a stale active flag);
//  3. a recognized trial with no days remaining becomes expirado;
//  4. any other recognized status passes through;
//  5. everything else fails closed to expirado.
func DeriveAccessState(p SubscriptionProfile, now time.Time) AccessState {
	state := AccessState{
		Plan:               p.Plan,
		TrialDaysRemaining: TrialDaysRemaining(p, now),
	}

	raw := strings.ToLower(strings.TrimSpace(p.RawStatus))
	status, recognized := rawStatusAliases[raw]

	switch {
	case p.Owner:
		state.Status = SubAtivo
	case !recognized:
		state.Status = SubExpirado
	case status == SubAtivo && p.ExpirationDate != nil && p.ExpirationDate.Before(now):
		state.Status = SubExpirado
	case status == SubTrial && state.TrialDaysRemaining == 0:
		state.Status = SubExpirado
	default:
		state.Status = status
	}

	state.Blocked = state.Status == SubExpirado
	return state
}
