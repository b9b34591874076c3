package result_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

func TestResult_Ok(t *testing.T) {
	t.Parallel()

	res := result.Ok(42)

	assert.True(t, res.IsOK())
	assert.False(t, res.IsErr())
	assert.Equal(t, 42, res.Value())
	assert.Nil(t, res.Err())
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	failure := result.NewError("Document.NotFound", "report.docx")
	res := result.Err[int](failure)

	assert.False(t, res.IsOK())
	assert.True(t, res.IsErr())
	assert.Same(t, failure, res.Err())
}

func TestResult_Err_NilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		result.Err[int](nil)
	})
}

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("transforms the success value", func(t *testing.T) {
		t.Parallel()

		res := result.Map(result.Ok(2), func(v int) string {
			return "doubled"
		})

		require.True(t, res.IsOK())
		assert.Equal(t, "doubled", res.Value())
	})

	t.Run("passes an error through unchanged", func(t *testing.T) {
		t.Parallel()

		failure := result.NewError("Document.NotFound")
		res := result.Map(result.Err[int](failure), func(v int) string {
			t.Fatal("the mapping function must not run on an error")
			return ""
		})

		require.True(t, res.IsErr())
		assert.Same(t, failure, res.Err())
	})
}

func TestAndThen(t *testing.T) {
	t.Parallel()

	t.Run("chains successful steps", func(t *testing.T) {
		t.Parallel()

		res := result.AndThen(result.Ok(2), func(v int) result.Result[int] {
			return result.Ok(v * 10)
		})

		require.True(t, res.IsOK())
		assert.Equal(t, 20, res.Value())
	})

	t.Run("short-circuits on an error", func(t *testing.T) {
		t.Parallel()

		failure := result.NewError("Document.NotFound")
		res := result.AndThen(result.Err[int](failure), func(v int) result.Result[int] {
			t.Fatal("the next step must not run on an error")
			return result.Ok(0)
		})

		require.True(t, res.IsErr())
		assert.Same(t, failure, res.Err())
	})

	t.Run("propagates a failed step", func(t *testing.T) {
		t.Parallel()

		failure := result.NewError("ResetStyles.Failed")
		res := result.AndThen(result.Ok(2), func(v int) result.Result[int] {
			return result.Err[int](failure)
		})

		require.True(t, res.IsErr())
		assert.Same(t, failure, res.Err())
	})
}

func TestMatch(t *testing.T) {
	t.Parallel()

	ok := result.Match(result.Ok(7),
		func(v int) string { return "ok" },
		func(err *result.Error) string { return "err" },
	)
	assert.Equal(t, "ok", ok)

	failed := result.Match(result.Err[int](result.NewError("Document.NotFound")),
		func(v int) string { return "ok" },
		func(err *result.Error) string { return err.Code() },
	)
	assert.Equal(t, "Document.NotFound", failed)
}
