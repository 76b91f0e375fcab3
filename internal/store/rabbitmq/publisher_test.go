package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	m, err := DecodeJob([]byte(`{"notebook_id":"nb","run_id":"r1"}`))
	require.NoError(t, err)
	assert.Equal(t, JobMessage{NotebookID: "nb", RunID: "r1"}, m)

	_, err = DecodeJob([]byte(`{"notebook_id":"nb"}`))
	assert.Error(t, err)
	_, err = DecodeJob([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewPublishing(t *testing.T) {
	msg := newPublishing([]byte("{}"), 0, 0)
	assert.Nil(t, msg.Headers)
	assert.Empty(t, msg.Expiration)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	msg = newPublishing([]byte("{}"), 2, 1500*time.Millisecond)
	assert.Equal(t, "1500", msg.Expiration)
	assert.Equal(t, 2, Attempt(amqp.Delivery{Headers: msg.Headers}))
}

func TestAttempt(t *testing.T) {
	assert.Equal(t, 0, Attempt(amqp.Delivery{}))
	assert.Equal(t, 3, Attempt(amqp.Delivery{Headers: amqp.Table{AttemptHeader: int64(3)}}))
	assert.Equal(t, "jobs.retry", RetryQueue("jobs"))
	assert.Equal(t, "jobs.dlq", DeadQueue("jobs"))
}
