package cache

import (
	"github.com/spacemonkeygo/errors"
)

// grouping, do not instantiate
var Error *errors.ErrorClass = errors.NewClass("CacheError")

/*
	Error raised when an on-disk cache entry is inconsistent with its
	fingerprint: a missing or garbled status marker, a marker naming a
	different fingerprint than the directory it sits in, a missing rootfs.

	Callers normally never see this class: the cache quarantines the entry
	and treats it as a miss, forcing a rebuild rather than trusting
	corrupted data.  It surfaces only if the quarantine itself fails.
*/
var CorruptionError *errors.ErrorClass = Error.NewClass("CacheCorruptionError")

/*
	Error raised when the advisory lock file for a fingerprint cannot be
	created or acquired.  This is about the lock mechanism itself; blocking
	on a lock held by another invocation is normal operation, not an error.
*/
var LockError *errors.ErrorClass = Error.NewClass("CacheLockError")
