package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCardNumber(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"4242424242424242", true},
		{"4242 4242 4242 4242", true},
		{"4242-4242-4242-4242", true},
		{"4242424242424241", false},
		{"79927398713", false},
		{"", false},
		{"4242abcd42424242", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsCardNumber(tt.number))
		})
	}
}

func TestIsLuna(t *testing.T) {
	assert.True(t, IsLuna("79927398713"))
	assert.False(t, IsLuna("79927398710"))
}
