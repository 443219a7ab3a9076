package payments

import (
	"context"

	"github.com/google/uuid"

	"inbox-cleaner-api/internal/domain/billing"
)

// Simulator is the offline Provider used when no real payment provider is
// configured. Every confirmation succeeds, and the ids it issues carry the
// simulated prefix so they are distinguishable from provider-confirmed ones.
type Simulator struct{}

func NewSimulator() Simulator { return Simulator{} }

func (Simulator) CreateIntent(_ context.Context, _ int64, _ string, _ map[string]string) (Intent, error) {
	id := billing.SimulatedPrefix + uuid.NewString()
	return Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_confirmation",
	}, nil
}

func (Simulator) Confirm(_ context.Context, intentID, _ string) (Intent, error) {
	return Intent{ID: intentID, Status: StatusSucceeded}, nil
}
