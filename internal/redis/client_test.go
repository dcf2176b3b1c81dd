package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "auth:request:ada@example.com", CodeRequestKey("ada@example.com"))
	assert.Equal(t, "auth:verify:ada@example.com", CodeVerifyKey("ada@example.com"))
	assert.Equal(t, "messages:ada@example.com", MessageRateKey("ada@example.com"))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url://")
	assert.Error(t, err)
}
