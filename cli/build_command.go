package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli"

	"go.polydawn.net/hutch/def"
)

func BuildCommandPattern(output io.Writer) cli.Command {
	return cli.Command{
		Name:      "build",
		Usage:     "Build containers without running anything, printing each final fingerprint",
		ArgsUsage: "[container ...]",
		Action: func(ctx *cli.Context) {
			journal := journalLogger(ctx)

			convertErrors(func() {
				cfg := LoadConfigFromFile(ctx.GlobalString("config"))
				eng := assembleEngines(ctx)

				// no args means all of them, in stable order.
				names := ctx.Args()
				if len(names) == 0 {
					names = def.SortedKeys(cfg.Containers)
				}
				for _, name := range names {
					container, ok := cfg.Containers[name]
					if !ok {
						panic(def.ConfigError.New("no such container %q", name))
					}
					eng.builder.Ensure(container, journal)
					fmt.Fprintf(output, "%s\t%s\n", name, eng.builder.Final(container))
				}
			})
		},
	}
}
