package http

import (
	"net/http"

	"caixa/internal/core"
)

type subscriptionResponse struct {
	Status             core.SubscriptionStatus `json:"status"`
	Plan               string                  `json:"plan,omitempty"`
	TrialDaysRemaining int                     `json:"trial_days_remaining"`
	Blocked            bool                    `json:"blocked"`
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	state, err := s.subs.Access(r.Context(), accountID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		Status:             state.Status,
		Plan:               state.Plan,
		TrialDaysRemaining: state.TrialDaysRemaining,
		Blocked:            state.Blocked,
	})
}
