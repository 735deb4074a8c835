package userns

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ugorji/go/codec"

	"golang.org/x/sys/unix"

	"go.polydawn.net/hutch/def"
)

/*
	RunInit is the entry point of the re-exec'd init child.  By the time
	we're here the kernel has already put us in fresh user and mount
	namespaces with our id maps written; what's left is to chroot into
	the assembled rootfs, become the command's identity, and exec.

	Never returns: the process image is replaced on success, and every
	failure writes a typed report to the status pipe (fd 3, CLOEXEC so a
	successful exec closes it silently) and exits.
*/
func RunInit(ctxPath string) {
	status := os.NewFile(3, "status")
	unix.CloseOnExec(3)
	bail := func(failure, format string, args ...interface{}) {
		report := initReport{Failure: failure, Message: fmt.Sprintf(format, args...)}
		var ser []byte
		if err := codec.NewEncoderBytes(&ser, contextHandle).Encode(report); err == nil && status != nil {
			status.Write(ser)
			status.Close()
		}
		os.Exit(1)
	}

	ser, err := ioutil.ReadFile(ctxPath)
	if err != nil {
		bail(failureSetup, "init: unable to read context: %s", err)
	}
	var ctx initContext
	if err := codec.NewDecoderBytes(ser, contextHandle).Decode(&ctx); err != nil {
		bail(failureSetup, "init: unable to parse context: %s", err)
	}

	if err := unix.Chroot(ctx.RootPath); err != nil {
		bail(failureSetup, "init: chroot failed: %s", err)
	}
	if err := unix.Chdir(ctx.Cwd); err != nil {
		bail(failureSetup, "init: chdir failed: %s", err)
	}

	// shed inner-root: gid first (no permission to change groups once
	// the uid is gone), then uid, all three of each so there's no saved
	// id to crawl back to.
	if err := syscall.Setresgid(ctx.UserID, ctx.UserID, ctx.UserID); err != nil {
		bail(failureSetup, "init: setresgid failed: %s", err)
	}
	if err := syscall.Setresuid(ctx.UserID, ctx.UserID, ctx.UserID); err != nil {
		bail(failureSetup, "init: setresuid failed: %s", err)
	}

	resolved, found := lookPath(ctx.Argv[0], ctx.Env["PATH"])
	if !found {
		bail(failureNoSuchCommand, "command %q not found in container", ctx.Argv[0])
	}
	envv := make([]string, 0, len(ctx.Env))
	for _, k := range def.SortedKeys(ctx.Env) {
		envv = append(envv, k+"="+ctx.Env[k])
	}

	err = unix.Exec(resolved, ctx.Argv, envv)
	// exec only returns on failure.
	switch err {
	case unix.ENOENT, unix.ENOTDIR, unix.EACCES:
		bail(failureNoSuchCommand, "command %q not executable in container: %s", ctx.Argv[0], err)
	default:
		bail(failureTaskExec, "exec of %q failed: %s", ctx.Argv[0], err)
	}
}

// PATH resolution happens after the chroot, so it sees the container's
// filesystem, not the host's.
func lookPath(name, pathSpec string) (string, bool) {
	if strings.Contains(name, "/") {
		return name, isExecutable(name)
	}
	for _, dir := range filepath.SplitList(pathSpec) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Mode().Perm()&0111 != 0
}
