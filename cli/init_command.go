package cli

import (
	"github.com/urfave/cli"

	"go.polydawn.net/hutch/executor/userns"
)

/*
	The `init` command is the half of the executor that lands inside the
	new namespaces: the parent re-execs `/proc/self/exe init <ctxfile>`
	after cloning, and this picks the thread of control back up.  It is
	hidden from help output because no human should ever type it.
*/
func InitCommandPattern() cli.Command {
	return cli.Command{
		Name:      "init",
		Hidden:    true,
		ArgsUsage: "<ctxfile>",
		Action: func(ctx *cli.Context) {
			if ctx.NArg() != 1 {
				panic(Error.NewWith(
					"init requires exactly one argument",
					SetExitCode(EXIT_BADARGS)))
			}
			userns.RunInit(ctx.Args().First())
			// RunInit either execs or exits; it never returns.
		},
	}
}
