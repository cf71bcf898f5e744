package s3store

import (
	"fmt"
)

type ErrPermissionsTooOpen struct {
	msg string
}

func (e *ErrPermissionsTooOpen) Error() string {
	return e.msg
}

type ErrIdentitiesNotFound struct{}

func (e *ErrIdentitiesNotFound) Error() string {
	return "unable to decrypt: no identities available"
}

type ErrNoSuchObject struct {
	key string
}

func (e *ErrNoSuchObject) Error() string {
	return fmt.Sprintf("no such object in bucket: %s", e.key)
}

type ErrNoSuchBucket struct {
	Bucket string
}

func (e *ErrNoSuchBucket) Error() string {
	return fmt.Sprintf("bucket does not exist: %s", e.Bucket)
}
