package builder

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/inconshreveable/log15"
	"github.com/polydawn/gosh"
	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"
	"golang.org/x/sys/unix"

	"go.polydawn.net/hutch/def"
)

const buildPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

func (b *Builder) applyStep(rootfs string, index int, step def.Step, env map[string]string, journal log15.Logger) {
	switch s := step.(type) {
	case def.BaseDistro:
		b.applyBaseDistro(rootfs, index, s)
	case def.EnableRepo:
		applyEnableRepo(rootfs, index, s)
	case def.Install:
		applyInstall(rootfs, index, s, env, journal)
	case def.Shell:
		applyShell(rootfs, index, s, env, journal)
	case def.EnsureDir:
		applyEnsureDir(rootfs, index, s)
	default:
		panic(errors.ProgrammerError.New("unhandled step kind %q", step.StepKind()))
	}
}

/*
	Unpacks `<imagesDir>/<release>.tar.gz` into the rootfs.  The tarball
	is expected to be a whole distro root; fetching them is out of scope
	(drop them in the images dir by whatever means).
*/
func (b *Builder) applyBaseDistro(rootfs string, index int, s def.BaseDistro) {
	tarball := filepath.Join(b.imagesDir, s.Release+".tar.gz")
	if _, err := os.Stat(tarball); err != nil {
		panic(SetupError.New("no base image for release %q: expected tarball at %q", s.Release, tarball))
	}
	buf := &bytes.Buffer{}
	proc := gosh.Gosh(
		"tar", "-xzf", tarball,
		"-C", rootfs,
		"--numeric-owner",
		gosh.Opts{OkExit: gosh.AnyExit, Out: buf, Err: buf},
	).Run()
	if code := proc.GetExitCode(); code != 0 {
		panic(StepError.NewWith(
			fmt.Sprintf("unpacking base image %q failed (tar exited %d): %s", s.Release, code, buf.String()),
			SetStepIndex(index), SetExitStatus(code),
		))
	}
}

/*
	Appends an apt source line for the named repo component.  The release
	codename comes from the rootfs's own `/etc/lsb-release`, so this step
	only makes sense after a base-distro step.
*/
func applyEnableRepo(rootfs string, index int, s def.EnableRepo) {
	codename := releaseCodename(rootfs)
	if codename == "" {
		panic(StepError.NewWith(
			fmt.Sprintf("cannot enable repo %q: rootfs has no /etc/lsb-release to name its release", s.Repo),
			SetStepIndex(index),
		))
	}
	listPath := filepath.Join(rootfs, "etc/apt/sources.list")
	if err := os.MkdirAll(filepath.Dir(listPath), 0755); err != nil {
		panic(StepError.NewWith(fmt.Sprintf("cannot enable repo %q: %s", s.Repo, err), SetStepIndex(index)))
	}
	f, err := os.OpenFile(listPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		panic(StepError.NewWith(fmt.Sprintf("cannot enable repo %q: %s", s.Repo, err), SetStepIndex(index)))
	}
	defer f.Close()
	for _, suite := range []string{codename, codename + "-updates", codename + "-security"} {
		if _, err := fmt.Fprintf(f, "deb http://archive.ubuntu.com/ubuntu %s %s\n", suite, s.Repo); err != nil {
			panic(StepError.NewWith(fmt.Sprintf("cannot enable repo %q: %s", s.Repo, err), SetStepIndex(index)))
		}
	}
}

func releaseCodename(rootfs string) string {
	body, err := ioutil.ReadFile(filepath.Join(rootfs, "etc/lsb-release"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(body), "\n") {
		if rest, ok := strings.CutPrefix(line, "DISTRIB_CODENAME="); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func applyInstall(rootfs string, index int, s def.Install, env map[string]string, journal log15.Logger) {
	aptEnv := map[string]string{"DEBIAN_FRONTEND": "noninteractive"}
	runInRoot(rootfs, index, []string{"apt-get", "update"}, mergeEnv(env, aptEnv), journal)
	argv := append([]string{"apt-get", "install", "-y", "--no-install-recommends"}, s.Packages...)
	runInRoot(rootfs, index, argv, mergeEnv(env, aptEnv), journal)
}

func applyShell(rootfs string, index int, s def.Shell, env map[string]string, journal log15.Logger) {
	runInRoot(rootfs, index, []string{"/bin/sh", "-c", s.Script}, mergeEnv(env, nil), journal)
}

func applyEnsureDir(rootfs string, index int, s def.EnsureDir) {
	// clean through "/" so a sneaky "../" cannot reach outside the rootfs.
	inRoot := filepath.Join(rootfs, filepath.Clean("/"+s.Path))
	if err := os.MkdirAll(inRoot, 0755); err != nil {
		panic(StepError.NewWith(fmt.Sprintf("ensure-dir %q: %s", s.Path, err), SetStepIndex(index)))
	}
	// restate the raw mode: MkdirAll filters through umask, and the
	// 07000 bits don't survive an os.FileMode cast at all.
	if err := unix.Chmod(inRoot, s.Mode); err != nil {
		panic(StepError.NewWith(fmt.Sprintf("ensure-dir %q: %s", s.Path, err), SetStepIndex(index)))
	}
}

/*
	Runs a step's subprocess chrooted into the rootfs under construction.
	Output streams into the journal.  Nonzero exit raises `StepError`
	carrying the step index and exit status.
*/
func runInRoot(rootfs string, index int, argv []string, env map[string]string, journal log15.Logger) {
	buf := &bytes.Buffer{}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = "/"
	cmd.Env = flattenEnv(env)
	cmd.Stdin = nil
	cmd.Stdout = buf
	cmd.Stderr = buf
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Chroot:    rootfs,
		Pdeathsig: syscall.SIGKILL,
	}

	var proc gosh.Proc
	try.Do(func() {
		proc = gosh.ExecProcCmd(cmd)
	}).CatchAll(func(err error) {
		switch err.(type) {
		case gosh.NoSuchCommandError:
			panic(StepError.NewWith(
				fmt.Sprintf("step command %q not found in rootfs", argv[0]),
				SetStepIndex(index),
			))
		case gosh.ProcMonitorError:
			panic(Error.Wrap(err))
		default:
			panic(Error.Wrap(err))
		}
	}).Done()

	code := proc.GetExitCode()
	if buf.Len() > 0 {
		journal.Debug("step output", "step", index, "output", buf.String())
	}
	if code != 0 {
		panic(StepError.NewWith(
			fmt.Sprintf("step %d (%s) exited %d: %s", index, strings.Join(argv, " "), code, tail(buf.String())),
			SetStepIndex(index), SetExitStatus(code),
		))
	}
}

// last few lines of step output, for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}

func mergeEnv(base, extra map[string]string) map[string]string {
	merged := map[string]string{"PATH": buildPath, "HOME": "/root"}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func flattenEnv(env map[string]string) []string {
	flat := make([]string, 0, len(env))
	for _, k := range def.SortedKeys(env) {
		flat = append(flat, k+"="+env[k])
	}
	return flat
}
