package contracts

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestWrapCategorizedError_NewErrorUsesProvidedCategory(t *testing.T) {
	wrapped := WrapCategorizedError(ErrorCategoryStorage, errors.New("boom"))
	var classified *CategorizedError
	if !errors.As(wrapped, &classified) {
		t.Fatalf("expected categorized error, got %T", wrapped)
	}
	if classified.Category != ErrorCategoryStorage {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryStorage, classified.Category)
	}
}

func TestWrapCategorizedError_KeepsExistingCategory(t *testing.T) {
	inner := WrapCategorizedError(ErrorCategoryTransport, errors.New("send failed"))
	outer := WrapCategorizedError(ErrorCategoryEngine, inner)
	if got := ErrorCategory(outer); got != ErrorCategoryTransport {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryTransport, got)
	}
}

func TestWrapCategorizedError_NormalizesUnknownCategoryToAPI(t *testing.T) {
	wrapped := WrapCategorizedError("unknown", errors.New("boom"))
	if got := ErrorCategory(wrapped); got != ErrorCategoryAPI {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryAPI, got)
	}
	if WrapCategorizedError(ErrorCategoryAPI, nil) != nil {
		t.Fatal("nil error must stay nil")
	}
}

func TestErrorCategory_DefaultsToAPIForRegularErrors(t *testing.T) {
	if got := ErrorCategory(errors.New("plain")); got != ErrorCategoryAPI {
		t.Fatalf("expected default category=%q, got %q", ErrorCategoryAPI, got)
	}
}

func TestProcessingErrorMatchesSentinelAndCause(t *testing.T) {
	err := fmt.Errorf("run txt_to_vcf: %w", &ProcessingError{Kind: "txt_to_vcf", Err: os.ErrNotExist})
	if !errors.Is(err, ErrProcessingFailure) {
		t.Fatal("expected ErrProcessingFailure match")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected cause to stay reachable")
	}
}

func TestWrapCategorizedError_KeepsOuterContext(t *testing.T) {
	inner := WrapCategorizedError(ErrorCategoryStorage, os.ErrNotExist)
	outer := WrapCategorizedError(ErrorCategoryEngine, fmt.Errorf("read source: %w", inner))
	if got := outer.Error(); got != "read source: "+os.ErrNotExist.Error() {
		t.Fatalf("outer context lost: %q", got)
	}
	if got := ErrorCategory(outer); got != ErrorCategoryStorage {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryStorage, got)
	}
	if !errors.Is(outer, os.ErrNotExist) {
		t.Fatal("expected cause to stay reachable")
	}
}
