package telegram

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

func TestObserveOutcome(t *testing.T) {
	before := testutil.ToFloat64(authOutcomes.WithLabelValues(string(domain.OutcomeAuthorized)))

	ObserveOutcome(domain.OutcomeAuthorized)
	ObserveOutcome(domain.OutcomeAuthorized)

	after := testutil.ToFloat64(authOutcomes.WithLabelValues(string(domain.OutcomeAuthorized)))
	assert.Equal(t, before+2, after)
}
