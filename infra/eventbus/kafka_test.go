package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, parseBrokers(""))
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "voicepay.events.transfer.completed", topicNameFor("voicepay.events", "Transfer.Completed"))
	assert.Equal(t, "voicepay.events.dlq.moneyrequest.resolved", dlqTopicNameFor(" voicepay.events ", "MoneyRequest.Resolved"))
}

func TestNewWithKafka_RequiresBrokers(t *testing.T) {
	_, err := NewWithKafka(" , ", KafkaConfig{}, nil)
	assert.Error(t, err)
}
