package oracle

import (
	"context"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// Offline never answers. Every stage falls back to its deterministic data.
type Offline struct{}

// Name implements core.Oracle.
func (Offline) Name() string { return "offline" }

// Complete implements core.Oracle.
func (Offline) Complete(ctx context.Context, _ core.OracleRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", TranslateError("offline", err)
	}
	return "", core.ErrProvider("offline", core.CodeProviderUnavailable, "no oracle configured")
}
