package listing

import (
	"context"

	"github.com/grote/lazylist/pkg/provider"
)

// Query is a repeatable directory-children query.
//
// Invoking it either produces a Result or signals absence by returning a
// nil Result. The readiness waiter invokes a Query at least once and at
// most twice (the second time after a change notification), so callbacks
// must be safely re-invocable.
type Query func(ctx context.Context) (provider.Result, error)

// Execute runs the query once and returns its Result.
//
// Fails with ErrQueryFailed when the callback errors or yields no result
// (for example, the directory was deleted mid-query). No retries happen
// here: retry policy belongs to callers.
func Execute(ctx context.Context, query Query) (provider.Result, error) {
	res, err := query(ctx)
	if err != nil {
		return nil, &ListError{
			Code:    ErrQueryFailed,
			Message: "query failed",
			Err:     err,
		}
	}
	if res == nil {
		return nil, &ListError{
			Code:    ErrQueryFailed,
			Message: "query returned no result",
		}
	}
	return res, nil
}
