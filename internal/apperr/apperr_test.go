package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByKindAndOptionalCode(t *testing.T) {
	err := InvalidState(CodeAlreadyInState, "event already cancelled")
	wrapped := fmt.Errorf("cancel: %w", err)

	if !errors.Is(wrapped, &Error{Kind: KindInvalidState}) {
		t.Fatalf("expected kind match through wrapping")
	}
	if !errors.Is(wrapped, &Error{Kind: KindInvalidState, Code: CodeAlreadyInState}) {
		t.Fatalf("expected kind+code match")
	}
	if errors.Is(wrapped, &Error{Kind: KindInvalidState, Code: "EM-0013"}) {
		t.Fatalf("did not expect match on different code")
	}
	if errors.Is(wrapped, &Error{Kind: KindNotFound}) {
		t.Fatalf("did not expect match on different kind")
	}
}

func TestKindOfAndCodeOf(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("save: %w", Transient(CodeStoreUnavailable, "event store unavailable", cause))

	if got := KindOf(err); got != KindTransient {
		t.Fatalf("KindOf = %q, want %q", got, KindTransient)
	}
	if got := CodeOf(err); got != CodeStoreUnavailable {
		t.Fatalf("CodeOf = %q, want %q", got, CodeStoreUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via Unwrap")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty kind for non-app error")
	}
}
