// Package pagination loads brewery listings page by page with a local store
// acting as a five-minute cache in front of the remote API.
//
// A Source decides per page whether to serve the store or refetch:
//
//	source := pagination.NewSource(store, client, brewery.TypeMicro)
//	page, err := source.Load(ctx, pagination.LoadParams{LoadSize: 20})
//
// A Pager turns demand signals (Append, Prepend) into sequential loads and
// keeps an event log that any number of subscribers replay. A Registry keeps
// one Pager per brewery type so returning consumers resume the same stream:
//
//	registry := pagination.NewRegistry(ctx, func(t string) *pagination.Source {
//		return pagination.NewSource(store, client, t)
//	})
//	defer registry.Close()
//	pager := registry.GetOrCreateStream(brewery.TypeNano)
//
// A Warmer preloads the leading pages of many types with a worker pool.
package pagination
