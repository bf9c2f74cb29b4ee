package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdered(t *testing.T) {
	in := []string{"account:b", "account:a", "account:b"}
	assert.Equal(t, []string{"account:a", "account:b"}, Ordered(in))
	assert.Equal(t, []string{"account:b", "account:a", "account:b"}, in, "input must not be mutated")
}
