package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessageStripsCodePrefix(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"plain app error", NewInvocationFailedError("model API request failed", nil), "model API request failed"},
		{"app error with cause", NewInvocationFailedError("model API request failed", errors.New("dial tcp: timeout")), "model API request failed: dial tcp: timeout"},
		{"wrapped app error", fmt.Errorf("execute: %w", NewNotFoundError("agent not found")), "agent not found"},
		{"uncoded error", errors.New("something else"), "something else"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.err); got != tc.want {
				t.Errorf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}
