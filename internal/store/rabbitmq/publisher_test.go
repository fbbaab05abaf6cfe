package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	m, r, d := Names("ai.jobs")
	assert.Equal(t, []string{"ai.jobs", "ai.jobs.retry", "ai.jobs.dlq"}, []string{m, r, d})
}

func TestAttempt(t *testing.T) {
	assert.Equal(t, 1, Attempt(amqp.Delivery{}))
	assert.Equal(t, 3, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int32(3)}}))
	assert.Equal(t, 2, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int64(2)}}))
	assert.Equal(t, 1, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: "x"}}))
}

func TestDecodeJob(t *testing.T) {
	m, err := DecodeJob([]byte(`{"job_id":"01HX","kind":"parse_document"}`))
	require.NoError(t, err)
	assert.Equal(t, JobMessage{JobID: "01HX", Kind: "parse_document"}, m)

	_, err = DecodeJob([]byte(`not json`))
	assert.Error(t, err)
}
