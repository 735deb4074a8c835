package placer

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/lib/fs"
)

var _ Placer = BindPlacer

/*
	Gets material from srcPath to destPath by use of a bind mount.

	A read-only request is honored via the usual remount dance.  Bind
	mounts give no isolation at all: writes through a writable bind land
	on the host path.  That's the point of them.
*/
func BindPlacer(srcPath, destPath string, writable bool) Emplacement {
	mustBeDir("bindplacer", srcPath, "srcPath")
	mustBeDir("bindplacer", destPath, "destPath")
	flags := uintptr(unix.MS_BIND | unix.MS_REC)
	if err := unix.Mount(srcPath, destPath, "bind", flags, ""); err != nil {
		panic(Error.New("bindplacer: bind error: %s", err))
	}
	if !writable {
		flags |= unix.MS_RDONLY | unix.MS_REMOUNT
		if err := unix.Mount(srcPath, destPath, "bind", flags, ""); err != nil {
			panic(Error.New("bindplacer: bind error: %s", err))
		}
	}
	return bindEmplacement{path: destPath}
}

type bindEmplacement struct {
	path string
}

func (e bindEmplacement) Teardown() {
	if err := unix.Unmount(e.path, 0); err != nil {
		panic(Error.New("bindplacer: teardown failed: %s", err))
	}
}

/*
	Mounts a fresh tmpfs at destPath, sized and moded per the volume
	spec, then pre-creates any requested subdirs inside it.  The backing
	memory evaporates on teardown; that's the feature.
*/
func TmpfsPlacer(destPath string, vol def.Tmpfs) Emplacement {
	mustBeDir("tmpfsplacer", destPath, "destPath")
	data := fmt.Sprintf("mode=%#o", vol.Mode)
	if vol.Size > 0 {
		data += fmt.Sprintf(",size=%d", vol.Size)
	}
	if err := unix.Mount("tmpfs", destPath, "tmpfs", uintptr(unix.MS_NOSUID|unix.MS_NODEV), data); err != nil {
		panic(Error.New("tmpfsplacer: mount error: %s", err))
	}
	for _, sub := range vol.Subdirs {
		subPath := filepath.Join(destPath, filepath.Clean("/"+sub.Path))
		if err := os.MkdirAll(subPath, 0755); err != nil {
			panic(Error.New("tmpfsplacer: subdir error: %s", err))
		}
		// chmod with the raw mode: the 07000 bits (sticky, for one; the
		// X11 socket dir needs it) don't survive an os.FileMode cast.
		if err := unix.Chmod(subPath, sub.Mode); err != nil {
			panic(Error.New("tmpfsplacer: subdir error: %s", err))
		}
	}
	return tmpfsEmplacement{path: destPath}
}

type tmpfsEmplacement struct {
	path string
}

func (e tmpfsEmplacement) Teardown() {
	if err := unix.Unmount(e.path, 0); err != nil {
		panic(Error.New("tmpfsplacer: teardown failed: %s", err))
	}
}

/*
	NewOverlayPlacer mounts copy-on-write filesystems: the source becomes
	the read-only lower layer, and upper+work dirs live in tempdirs under
	the given scratch path.  Writes land in the upper layer and are
	discarded on teardown, which is exactly what a job root wants: the
	cached root below stays pristine.
*/
func NewOverlayPlacer(workPath string) Placer {
	if err := os.MkdirAll(workPath, 0755); err != nil {
		panic(Error.New("overlayplacer: workdir error: %s", err))
	}
	workPath, err := filepath.Abs(workPath)
	if err != nil {
		panic(Error.New("overlayplacer: workdir error: %s", err))
	}
	return func(srcPath, destPath string, writable bool) Emplacement {
		mustBeDir("overlayplacer", srcPath, "srcPath")
		mustBeDir("overlayplacer", destPath, "destPath")
		// a read-only request needs no COW layer; a plain bind does fine.
		if !writable {
			return BindPlacer(srcPath, destPath, writable)
		}
		layerPath, err := ioutil.TempDir(workPath, "layer-")
		if err != nil {
			panic(Error.New("overlayplacer: layer error: %s", err))
		}
		upperPath := filepath.Join(layerPath, "upper")
		workdirPath := filepath.Join(layerPath, "work")
		for _, p := range []string{upperPath, workdirPath} {
			if err := os.Mkdir(p, 0755); err != nil {
				panic(Error.New("overlayplacer: layer error: %s", err))
			}
		}
		// yes, this may behave oddly in the event of paths containing commas or colons.
		data := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", srcPath, upperPath, workdirPath)
		if err := unix.Mount("overlay", destPath, "overlay", 0, data); err != nil {
			os.RemoveAll(layerPath)
			panic(Error.New("overlayplacer: mount error: %s", err))
		}
		return overlayEmplacement{
			layerPath:   layerPath,
			landingPath: destPath,
		}
	}
}

type overlayEmplacement struct {
	layerPath   string
	landingPath string
}

func (e overlayEmplacement) Teardown() {
	// release the mount before throwing away the layer under it.
	if err := unix.Unmount(e.landingPath, 0); err != nil {
		panic(Error.New("overlayplacer: teardown failed: %s", err))
	}
	if err := os.RemoveAll(e.layerPath); err != nil {
		panic(Error.New("overlayplacer: teardown failed: %s", err))
	}
}

var _ Placer = CopyingPlacer

/*
	Gets material from srcPath to destPath the hard way.  No mount
	privileges needed, so this is the universal fallback when overlayfs
	is unavailable; the price is IO proportional to the tree.  Writes are
	naturally isolated (they only ever touch the copy).
*/
func CopyingPlacer(srcPath, destPath string, _ bool) Emplacement {
	mustBeDir("copyingplacer", srcPath, "srcPath")
	mustBeDir("copyingplacer", destPath, "destPath")
	// remove any files already here, to emulate an overlapping mount.
	d, err := os.Open(destPath)
	if err != nil {
		panic(Error.New("copyingplacer: io error: %s", err))
	}
	names, err := d.Readdirnames(-1)
	d.Close()
	if err != nil {
		panic(Error.New("copyingplacer: io error: %s", err))
	}
	for _, name := range names {
		if err := os.RemoveAll(filepath.Join(destPath, name)); err != nil {
			panic(Error.New("copyingplacer: io error: %s", err))
		}
	}
	fs.CopyTree(srcPath, destPath)
	return copyEmplacement{path: destPath}
}

type copyEmplacement struct {
	path string
}

func (e copyEmplacement) Teardown() {
	if err := os.RemoveAll(e.path); err != nil {
		panic(Error.New("copyingplacer: teardown failed: %s", err))
	}
}

func mustBeDir(sys, path, label string) {
	stat, err := os.Stat(path)
	if err != nil {
		panic(Error.New("%s: %s %q must be dir: %s", sys, label, path, err))
	}
	if !stat.IsDir() {
		panic(Error.New("%s: %s %q must be dir", sys, label, path))
	}
}
