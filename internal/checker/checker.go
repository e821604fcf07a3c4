// Package checker runs the external model quality tool that writes the
// results and report artifacts for one model.
package checker

import (
	"context"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

// Checker writes both artifacts for model and returns the tool's status code:
// 0 when every check passed, non-zero when at least one failed. A non-nil
// error means no trustworthy status was produced.
type Checker interface {
	Check(ctx context.Context, model *domain.Model, resultsPath, reportPath string) (int, error)
}

// Func adapts a plain function to Checker.
type Func func(ctx context.Context, model *domain.Model, resultsPath, reportPath string) (int, error)

func (f Func) Check(ctx context.Context, model *domain.Model, resultsPath, reportPath string) (int, error) {
	return f(ctx, model, resultsPath, reportPath)
}
