package bridge

import (
	"context"

	"storebridge/internal/bridge/models"
	"storebridge/internal/store"
	dErrors "storebridge/pkg/domain-errors"
)

// FetchProducts resolves product identifiers to fresh descriptors. Identifiers
// the store cannot resolve are simply absent from the result; only a failed
// store call is an error. Descriptors are never cached across calls.
func (b *Bridge) FetchProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one product identifier is required")
	}
	products, err := b.store.Products(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProductFetchFailed, "product fetch failed")
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		out = append(out, translateProduct(p))
	}
	return out, nil
}

// resolveProduct fetches a single product, failing with product_not_found
// when the store does not know the identifier.
func (b *Bridge) resolveProduct(ctx context.Context, productID string) (store.Product, error) {
	products, err := b.store.Products(ctx, []string{productID})
	if err != nil {
		return store.Product{}, dErrors.Wrap(err, dErrors.CodeProductFetchFailed, "product fetch failed")
	}
	if len(products) == 0 {
		return store.Product{}, dErrors.Newf(dErrors.CodeProductNotFound, "product %q not found", productID)
	}
	return products[0], nil
}
