package cache

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

/*
	Lock is a held fingerprint-scoped advisory lock.

	Locks are plain flocks on per-fingerprint lock files, so they coordinate
	across processes (that's their whole point: parallelism in this system
	exists only *between* invocations) and evaporate if the holder dies.
*/
type Lock struct {
	fp   Fingerprint
	file *os.File
}

/*
	Lock blocks until the exclusive advisory lock for a fingerprint is held.

	The contract for builders: acquire, then re-check the entry's status.
	If the previous holder completed the build, the waiter adopts the
	committed entry; if the holder failed, the waiter attempts the build
	itself.  Either way at most one provisioning run per fingerprint is in
	flight at a time.
*/
func (c *Cache) Lock(fp Fingerprint) *Lock {
	return c.lock(fp, 0)
}

// TryLock is the non-blocking flavor; reports false if another invocation
// holds the lock.
func (c *Cache) TryLock(fp Fingerprint) (*Lock, bool) {
	lock := c.lock(fp, unix.LOCK_NB)
	return lock, lock != nil
}

func (c *Cache) lock(fp Fingerprint, flags int) *Lock {
	path := filepath.Join(c.basePath, "locks", string(fp)+".lock")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		panic(LockError.New("unable to open lock file: %s", err))
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|flags); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil
		}
		panic(LockError.New("unable to acquire lock for %q: %s", fp, err))
	}
	return &Lock{fp: fp, file: file}
}

func (l *Lock) Unlock() {
	// closing drops the flock; no separate LOCK_UN dance needed.
	l.file.Close()
}
