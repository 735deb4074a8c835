package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli"

	"go.polydawn.net/hutch/dispatch"
)

func RunCommandPattern(output io.Writer) cli.Command {
	return cli.Command{
		Name:      "run",
		Usage:     "Run a command, building its container and prerequisites first",
		ArgsUsage: "<command>",
		Action: func(ctx *cli.Context) {
			if ctx.NArg() != 1 {
				panic(Error.NewWith(
					fmt.Sprintf("`%s run` requires exactly one argument: the command name", ctx.App.Name),
					SetExitCode(EXIT_BADARGS)))
			}
			commandName := ctx.Args().First()
			journal := journalLogger(ctx)

			convertErrors(func() {
				cfg := LoadConfigFromFile(ctx.GlobalString("config"))
				eng := assembleEngines(ctx)
				dsp := &dispatch.Dispatcher{
					Provisioner: eng.builder,
					Executor:    eng.executor,
				}
				status := dsp.Run(cfg, commandName, journal)
				if status != 0 {
					// the task already said anything it had to say on our
					//  inherited stderr; just carry the code out.
					panic(Exit.NewWith(
						fmt.Sprintf("command exited %d", status),
						SetExitCode(ExitCode(status))))
				}
			})
		},
	}
}
