package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"supplymatch/domain/core"
)

func TestFromDomainMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"cycle", &core.CycleError{Nodes: []core.NodeID{"a", "b"}}, CodeCycleDetected},
		{"import conflict", &core.ImportError{Domain: "bakery"}, CodeImportConflict},
		{"wrapped import conflict", fmt.Errorf("loading: %w", core.ErrImportConflict), CodeImportConflict},
		{"not found", core.NewNotFoundError("solution", "s-1"), CodeNotFound},
		{"validation", fmt.Errorf("bad rule: %w", core.ErrValidation), CodeValidationError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := FromDomain(tc.err)
			if !IsAppError(mapped) {
				t.Fatalf("Expected AppError, got %T", mapped)
			}
			if GetCode(mapped) != tc.code {
				t.Errorf("Expected code %s, got %s", tc.code, GetCode(mapped))
			}
			if !stderrors.Is(mapped, tc.err) && mapped.(*AppError).Cause != tc.err {
				t.Error("Mapped error should keep the cause chain")
			}
		})
	}
}

func TestFromDomainImportConflictNamesDomain(t *testing.T) {
	mapped := FromDomain(&core.ImportError{Domain: "hardware"})
	if !strings.Contains(mapped.Error(), "hardware") {
		t.Errorf("Expected the conflicting domain in the message, got %q", mapped.Error())
	}
}

func TestFromDomainPassthrough(t *testing.T) {
	if got := FromDomain(nil); got != nil {
		t.Errorf("Expected nil passthrough, got %v", got)
	}

	plain := stderrors.New("disk full")
	if got := FromDomain(plain); got != plain {
		t.Errorf("Expected unmapped errors unchanged, got %v", got)
	}

	app := ConfigInvalid("bad threshold")
	if got := FromDomain(app); got != error(app) {
		t.Errorf("Expected AppErrors unchanged, got %v", got)
	}
}

func TestWrapPreservesCode(t *testing.T) {
	wrapped := Wrap(DatabaseError("connect failed"), "saving solution")
	if GetCode(wrapped) != CodeDatabaseError {
		t.Errorf("Expected wrapped error to keep its code, got %s", GetCode(wrapped))
	}
}
