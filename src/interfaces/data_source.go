package interfaces

import (
	"context"

	"bubble-model/src/models"
)

// -----------------------------------------------------------------------------
// IAssetSource produces the aligned auxiliary asset table a simulation runs on.
// -----------------------------------------------------------------------------

type IAssetSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// LoadAssets fetches every configured asset and joins them on one calendar axis.
	LoadAssets(ctx context.Context) (*models.MAssetTable, error)
}
