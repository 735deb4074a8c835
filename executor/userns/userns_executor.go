package userns

import (
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/ugorji/go/codec"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/executor"
	"go.polydawn.net/hutch/placer"
)

var _ executor.Executor = &Executor{}

/*
	Executor that runs commands in fresh user+mount namespaces, no
	daemon and no setuid helpers involved.

	The parent process assembles the job's filesystem in its workspace
	(a copy-on-write view over the cached root, plus the volume plan)
	and then re-execs itself as an init child inside new namespaces; the
	child chroots, drops to the command's identity, and execs the real
	argv.  Go can't unshare a user namespace in-process (the runtime is
	already threaded by the time any code runs), hence the re-exec.
*/
type Executor struct {
	workspacePath string
	assembler     *placer.Assembler
	rootPlacer    placer.Placer
}

func New(workspacePath, volumesRoot string) *Executor {
	if err := os.MkdirAll(filepath.Join(workspacePath, "jobs"), 0755); err != nil {
		panic(executor.SetupError.New("unable to create workspace: %s", err))
	}
	return &Executor{
		workspacePath: workspacePath,
		assembler:     placer.NewAssembler(volumesRoot),
		rootPlacer:    placer.NewOverlayPlacer(filepath.Join(workspacePath, "overlays")),
	}
}

// context handed to the init child, serial form.
type initContext struct {
	RootPath string            `json:"rootPath"`
	Argv     []string          `json:"argv"`
	Env      map[string]string `json:"env"`
	UserID   int               `json:"userID"`
	Cwd      string            `json:"cwd"`
}

// what the init child reports back over the status pipe when it cannot
// exec; an empty pipe means the exec happened.
type initReport struct {
	Failure string `json:"failure"`
	Message string `json:"message"`
}

const (
	failureSetup         = "setup"
	failureNoSuchCommand = "noSuchCommand"
	failureTaskExec      = "taskExec"
)

var contextHandle = &codec.JsonHandle{}

func (x *Executor) Run(assignment executor.Assignment, journal log15.Logger) int {
	if fi, err := os.Stat(assignment.RootPath); err != nil || !fi.IsDir() {
		panic(executor.SetupError.New("container root %q is not usable: %s", assignment.RootPath, err))
	}

	jobPath := filepath.Join(x.workspacePath, "jobs", jobID())
	if err := os.Mkdir(jobPath, 0755); err != nil {
		panic(executor.SetupError.New("unable to create job dir: %s", err))
	}
	defer os.RemoveAll(jobPath)

	// compose the job's filesystem: COW view of the cached root, then
	// the volume plan on top.  unwound in reverse on every exit path.
	rootfsPath := filepath.Join(jobPath, "rootfs")
	if err := os.Mkdir(rootfsPath, 0755); err != nil {
		panic(executor.SetupError.New("unable to create job rootfs dir: %s", err))
	}
	rootEmplacement := x.rootPlacer(assignment.RootPath, rootfsPath, true)
	defer rootEmplacement.Teardown()

	plan := placer.Plan(assignment.Container, assignment.Command)
	assembly := x.assembler.Assemble(rootfsPath, plan, journal)
	defer assembly.Teardown()

	ctxPath := filepath.Join(jobPath, "init.json")
	writeContext(ctxPath, initContext{
		RootPath: rootfsPath,
		Argv:     assignment.Command.Argv,
		Env:      taskEnv(assignment.Container),
		UserID:   assignment.Command.UserID,
		Cwd:      "/",
	})

	uidMaps, gidMaps := executor.Mappings(
		assignment.Command.ExternalUserID,
		assignment.Command.ExternalUserID,
		assignment.Command.UserID,
	)

	statusRead, statusWrite, err := os.Pipe()
	if err != nil {
		panic(executor.SetupError.New("unable to create status pipe: %s", err))
	}
	defer statusRead.Close()

	cmd := exec.Command("/proc/self/exe", "init", ctxPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{statusWrite} // becomes fd 3 in the child.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags:                 syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS,
		UidMappings:                uidMaps,
		GidMappings:                gidMaps,
		GidMappingsEnableSetgroups: false,
		Pdeathsig:                  syscall.SIGKILL,
	}

	journal.Info("spawning task",
		"command", assignment.Command.Name,
		"argv", assignment.Command.Argv,
		"userID", assignment.Command.UserID,
	)
	if err := cmd.Start(); err != nil {
		statusWrite.Close()
		panic(executor.SetupError.New("unable to spawn namespace init: %s", err))
	}
	statusWrite.Close() // the child holds the only write end now.

	// EOF arrives when the child execs (the fd is CLOEXEC there) or dies.
	reportBytes, _ := ioutil.ReadAll(statusRead)
	exitStatus := waitFor(cmd)

	if len(reportBytes) > 0 {
		var report initReport
		if err := codec.NewDecoderBytes(reportBytes, contextHandle).Decode(&report); err != nil {
			panic(executor.TaskExecError.New("namespace init spoke gibberish: %s", err))
		}
		switch report.Failure {
		case failureNoSuchCommand:
			panic(executor.NoSuchCommandError.New("%s", report.Message))
		case failureSetup:
			panic(executor.SetupError.New("%s", report.Message))
		default:
			panic(executor.TaskExecError.New("%s", report.Message))
		}
	}
	journal.Info("task finished", "command", assignment.Command.Name, "exitStatus", exitStatus)
	return exitStatus
}

// the container's environ, plus TERM passed through from the host when
// the container doesn't pin its own.
func taskEnv(container *def.Container) map[string]string {
	env := make(map[string]string, len(container.Env)+1)
	for k, v := range container.Env {
		env[k] = v
	}
	if _, ok := env["TERM"]; !ok {
		if term := os.Getenv("TERM"); term != "" {
			env["TERM"] = term
		}
	}
	return env
}

func writeContext(path string, ctx initContext) {
	var ser []byte
	if err := codec.NewEncoderBytes(&ser, contextHandle).Encode(ctx); err != nil {
		panic(executor.SetupError.New("unable to serialize init context: %s", err))
	}
	if err := ioutil.WriteFile(path, ser, 0600); err != nil {
		panic(executor.SetupError.New("unable to write init context: %s", err))
	}
}

// short, human-sortable-enough job names.
func jobID() string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(suffix)
}

/*
	Waits for the child to actually exit.  `os.Process.Wait` also
	returns for stops and other state changes under some conditions, so
	loop until the wait status names a real exit; signal deaths report
	as 128+sig, shell style.
*/
func waitFor(cmd *exec.Cmd) int {
	for {
		processState, err := cmd.Process.Wait()
		if err != nil {
			panic(executor.TaskExecError.New("lost track of task: %s", err))
		}
		waitStatus, ok := processState.Sys().(syscall.WaitStatus)
		if !ok {
			panic(executor.TaskExecError.New("unrecognizable wait status %T", processState.Sys()))
		}
		switch {
		case waitStatus.Exited():
			cmd.Wait() // lets Cmd release its descriptors; error irrelevant now.
			return waitStatus.ExitStatus()
		case waitStatus.Signaled():
			cmd.Wait()
			return 128 + int(waitStatus.Signal())
		}
	}
}
