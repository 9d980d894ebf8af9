package events

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStampsSortableID(t *testing.T) {
	earlier := New(SessionBooked, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	later := New(PaymentApproved, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

	id, err := ulid.Parse(earlier.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(earlier.OccurredAt), id.Time())
	assert.Less(t, earlier.ID, later.ID)
	assert.Equal(t, PaymentApproved, later.Type)
}

func TestQueuesFor(t *testing.T) {
	q := QueuesFor("therapy.events")
	assert.Equal(t, Queues{Main: "therapy.events", Retry: "therapy.events.retry", DLQ: "therapy.events.dlq"}, q)
	assert.True(t, Known(PaymentRejected))
	assert.False(t, Known("payment.refunded"))
}
