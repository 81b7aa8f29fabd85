package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCarriesCategoryAndContext(t *testing.T) {
	t.Parallel()

	err := Newf("label %s not found", "Q146").
		Category(CategoryNotFound).
		Context("image_sha1", "abc123").
		Build()

	assert.Equal(t, "label Q146 not found", err.Error())
	assert.Equal(t, string(CategoryNotFound), err.GetCategory())
	assert.Equal(t, "abc123", err.GetContext()["image_sha1"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuildDefaultsToGenericCategory(t *testing.T) {
	t.Parallel()

	err := New(NewStd("boom")).Build()
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
}

func TestIsMatchesCategoryBetweenEnhancedErrors(t *testing.T) {
	t.Parallel()

	a := Newf("first").Category(CategoryDatabase).Build()
	b := Newf("second").Category(CategoryDatabase).Build()
	c := Newf("third").Category(CategoryValidation).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestIsDelegatesToWrappedSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("record not found")
	wrapped := New(sentinel).Category(CategoryNotFound).Build()

	assert.True(t, Is(wrapped, sentinel))

	var target *EnhancedError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, CategoryNotFound, target.Category)
}

func TestTimingAddsOperationContext(t *testing.T) {
	t.Parallel()

	err := Newf("annotate failed").
		Category(CategoryImageProvider).
		Timing("vision_annotate", 1500*time.Millisecond).
		Build()

	ctx := err.GetContext()
	assert.Equal(t, "vision_annotate", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("oops").Context("key", "value").Build()
	ctx := err.GetContext()
	ctx["key"] = "mutated"
	assert.Equal(t, "value", err.GetContext()["key"])
}

func TestComponentExplicitAndDetected(t *testing.T) {
	t.Parallel()

	explicit := Newf("oops").Component("datastore").Build()
	assert.Equal(t, "datastore", explicit.GetComponent())

	// Detected from the call stack; test code lives in no registered
	// package, so detection falls back to the unknown component.
	detected := Newf("oops").Build()
	assert.Equal(t, ComponentUnknown, detected.GetComponent())
}

func TestValidationErrorHelper(t *testing.T) {
	t.Parallel()

	err := ValidationError("name must not be empty")
	assert.Equal(t, string(CategoryValidation), err.GetCategory())
	assert.Equal(t, "name must not be empty", err.Error())
}
