package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vxgen/ProductCheck/internal/models"
	"google.golang.org/genai"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: fmt.Errorf("wrap: %w", models.ErrRateLimited), want: true},
		{name: "api error 429", err: fmt.Errorf("x: %w", genai.APIError{Code: 429}), want: true},
		{name: "api error status", err: genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, want: true},
		{name: "api error other", err: genai.APIError{Code: 500, Status: "INTERNAL", Message: "boom"}, want: false},
		{name: "message only", err: errors.New("googleai: RESOURCE_EXHAUSTED: try later"), want: true},
		{name: "status code in message", err: errors.New("googleai: Error 429, Message: Quota exceeded for metric"), want: true},
		{name: "http status text", err: errors.New("unexpected status: 429 Too Many Requests"), want: true},
		{name: "unrelated", err: errors.New("invalid argument"), want: false},
		{name: "port containing 429", err: errors.New("generate: dial tcp 10.0.0.7:14290: connect: connection refused"), want: false},
		{name: "size containing 429", err: errors.New("generate: image of 4290 bytes exceeds inline quota"), want: false},
		{name: "quota word alone", err: errors.New("INVALID_ARGUMENT: request exceeds quota for inline data"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,AQID", DataURI("image/jpeg", []byte{1, 2, 3}))
}
