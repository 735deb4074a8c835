package dispatch

import (
	"github.com/inconshreveable/log15"

	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/executor"
)

/*
	Provisioner is what the dispatcher needs from the build side: a
	container in, a built root path out.  Satisfied by `builder.Builder`.
*/
type Provisioner interface {
	Ensure(container *def.Container, journal log15.Logger) string
}

/*
	Dispatcher runs a command and everything it declares it needs first.
*/
type Dispatcher struct {
	Provisioner Provisioner
	Executor    executor.Executor
}

/*
	Run executes the named command after its prerequisite chain,
	returning the exit status to hand to the shell.

	The whole prerequisite graph is checked for cycles before any side
	effect.  Prerequisites then run serially, each to completion in its
	own fresh isolation context, each container built at most once per
	invocation; a prerequisite exiting non-zero aborts the run with that
	status, and the target is never attempted.

	MAY PANIC with anything the builder or executor raises, plus
	`def.ConfigError` / `CycleError` for graph problems.
*/
func (d *Dispatcher) Run(cfg *def.Config, commandName string, journal log15.Logger) int {
	order := prerequisiteOrder(cfg, commandName)

	roots := map[string]string{}
	for _, name := range order {
		cmd := cfg.Commands[name]
		container, ok := cfg.Containers[cmd.Container]
		if !ok {
			panic(def.ConfigError.New("command %q names unknown container %q", name, cmd.Container))
		}

		root, built := roots[cmd.Container]
		if !built {
			root = d.Provisioner.Ensure(container, journal)
			roots[cmd.Container] = root
		}

		if name != commandName {
			journal.Info("running prerequisite", "prerequisite", name, "for", commandName)
		}
		status := d.Executor.Run(executor.Assignment{
			Command:   cmd,
			Container: container,
			RootPath:  root,
		}, journal)

		if name == commandName {
			return status
		}
		if status != 0 {
			journal.Error("prerequisite failed; aborting",
				"prerequisite", name, "exitStatus", status, "target", commandName)
			return status
		}
	}
	// unreachable: the order always ends with the target.
	panic(Error.New("dispatch order lost its target"))
}
