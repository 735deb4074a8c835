package fs

import (
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spacemonkeygo/errors"
)

var Error *errors.ErrorClass = errors.NewClass("FsError")

/*
	CopyTree replicates the tree rooted at `srcBasePath` under
	`destBasePath`, which must already exist and be an empty directory.

	File modes (including setuid/setgid/sticky), ownership, symlink
	targets, and device numbers are preserved.  Symlinks are copied as
	links, never followed; their targets may dangle or point outside the
	tree (the tree is destined to be a chroot, where absolute targets
	make sense again).  Hardlink identity is not preserved: each name
	gets its own inode.
*/
func CopyTree(srcBasePath, destBasePath string) {
	// dirs are created writable and get their real modes applied in
	// reverse at the end, so read-only dirs don't block their own fill.
	type dirFixup struct {
		path string
		info os.FileInfo
	}
	var dirs []dirFixup

	err := filepath.Walk(srcBasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcBasePath, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(destBasePath, rel)
		if info.IsDir() {
			if rel != "." {
				// the dest base dir itself already exists.
				if err := os.Mkdir(destPath, 0755); err != nil {
					return err
				}
			}
			dirs = append(dirs, dirFixup{destPath, info})
			return nil
		}
		return placeOne(path, destPath, info)
	})
	if err != nil {
		panic(Error.New("copytree: %s", err))
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := placeAttribs(dirs[i].path, dirs[i].info); err != nil {
			panic(Error.New("copytree: %s", err))
		}
	}
}

func placeOne(srcPath, destPath string, info os.FileInfo) error {
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		src, err := os.Open(srcPath)
		if err != nil {
			return err
		}
		dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode.Perm())
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dest, src)
		src.Close()
		if err2 := dest.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return err
		}
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(srcPath)
		if err != nil {
			return err
		}
		if err := os.Symlink(target, destPath); err != nil {
			return err
		}
	case mode&(os.ModeDevice|os.ModeCharDevice|os.ModeNamedPipe) != 0:
		st := info.Sys().(*syscall.Stat_t)
		if err := syscall.Mknod(destPath, st.Mode, int(st.Rdev)); err != nil {
			return err
		}
	case mode&os.ModeSocket != 0:
		// sockets are ephemeral; a copied one would be dead weight anyway.
		return nil
	default:
		return Error.New("copytree: unhandled file mode %v at %q", mode, srcPath)
	}
	return placeAttribs(destPath, info)
}

func placeAttribs(destPath string, info os.FileInfo) error {
	st := info.Sys().(*syscall.Stat_t)
	if err := os.Lchown(destPath, int(st.Uid), int(st.Gid)); err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		// full mode, not just perms: setuid bits ride along here.
		if err := os.Chmod(destPath, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}
