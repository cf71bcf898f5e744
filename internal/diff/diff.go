package diff

import (
	"github.com/studio1767/s3sync/internal/inventory"
)

// Kind is the decision made for one relative key.
type Kind int

const (
	Skip Kind = iota
	Upload
	Download
	Delete
)

func (k Kind) String() string {
	switch k {
	case Upload:
		return "upload"
	case Download:
		return "download"
	case Delete:
		return "delete"
	}
	return "skip"
}

// Action is one diff decision. LocalPath is empty for remote-only
// deletes; RemoteKey is always set.
type Action struct {
	Kind      Kind
	LocalPath string
	RemoteKey string
	Size      int64
}

// Compute reconciles the local inventory against the remote one and
// returns exactly one action per leaf key in the union of both.
//
// Keys in both inventories are compared by size only: local wins, so
// a size mismatch becomes an upload. A same-size but different-content
// edit is invisible here; no content hash or etag comparison is done.
// Keys only present locally are uploaded. Keys only present remotely
// are deleted when deleteRemoved is set, downloaded otherwise.
//
// Output order follows the local scan order, then the leftover
// remote-only keys in remote scan order.
func Compute(local, remote *inventory.Inventory, deleteRemoved bool) []Action {

	actions := make([]Action, 0, local.Len()+remote.Len())
	seen := make(map[string]bool, local.Len())

	for _, key := range local.Keys() {
		lentry, _ := local.Get(key)
		if lentry.Dir {
			continue
		}
		seen[key] = true

		rentry, ok := remote.Get(key)
		if !ok || rentry.Dir {
			actions = append(actions, Action{
				Kind:      Upload,
				LocalPath: key,
				RemoteKey: key,
				Size:      lentry.Size,
			})
			continue
		}

		kind := Skip
		if lentry.Size != rentry.Size {
			kind = Upload
		}
		actions = append(actions, Action{
			Kind:      kind,
			LocalPath: key,
			RemoteKey: key,
			Size:      lentry.Size,
		})
	}

	for _, key := range remote.Keys() {
		if seen[key] {
			continue
		}
		rentry, _ := remote.Get(key)
		if rentry.Dir {
			continue
		}

		if deleteRemoved {
			actions = append(actions, Action{
				Kind:      Delete,
				RemoteKey: key,
				Size:      rentry.Size,
			})
		} else {
			actions = append(actions, Action{
				Kind:      Download,
				LocalPath: key,
				RemoteKey: key,
				Size:      rentry.Size,
			})
		}
	}

	return actions
}
