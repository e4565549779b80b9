package documents

import (
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

const (
	errCollectionEmpty = "collection cannot be empty"
	errIDEmpty         = "document ID cannot be empty"
	errDataEmpty       = "document data cannot be empty"
)

func validateKey(collection, id string) error {
	if collection == "" {
		return errors.InvalidArgument(errCollectionEmpty)
	}
	if id == "" {
		return errors.InvalidArgument(errIDEmpty)
	}
	return nil
}

func notFound(collection, id string) error {
	return errors.NotFoundf("document %s/%s not found", collection, id).
		WithMeta("collection", collection).
		WithMeta("id", id)
}
