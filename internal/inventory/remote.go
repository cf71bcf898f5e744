package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/studio1767/s3sync/internal/s3store"
)

type ErrRemoteList struct {
	Bucket string
	Err    error
}

func (e *ErrRemoteList) Error() string {
	return fmt.Sprintf("failed to list bucket %s: %s", e.Bucket, e.Err)
}

func (e *ErrRemoteList) Unwrap() error {
	return e.Err
}

// ScanRemote lists every key under prefix and builds an inventory in
// the same relative-key space as the local scan: the prefix is
// stripped from each key. Keys ending in '/' become directory rows.
func ScanRemote(ctx context.Context, store s3store.Store, bucket, prefix string) (*Inventory, error) {

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	inv := New()

	// page through the listing until the continuation token runs out
	var token *string
	for {
		listing, err := store.List(ctx, bucket, prefix, token)
		if err != nil {
			return nil, &ErrRemoteList{Bucket: bucket, Err: err}
		}

		for _, obj := range listing.Objects {
			key := strings.TrimPrefix(obj.Key, prefix)
			if key == "" {
				continue
			}
			inv.Add(Entry{
				Key:  key,
				Size: obj.Size,
				ETag: strings.Trim(obj.ETag, `"`),
			})
		}

		if listing.NextToken == nil {
			break
		}
		token = listing.NextToken
	}

	return inv, nil
}
