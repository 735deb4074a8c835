package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"github.com/spacemonkeygo/errors"
	"github.com/spacemonkeygo/errors/try"
	"github.com/urfave/cli"

	"go.polydawn.net/hutch/builder"
	"go.polydawn.net/hutch/cache"
	"go.polydawn.net/hutch/def"
	"go.polydawn.net/hutch/dispatch"
	"go.polydawn.net/hutch/executor"
	"go.polydawn.net/hutch/executor/userns"
	"go.polydawn.net/hutch/placer"
)

func Main(args []string, journal, output io.Writer) {
	App := cli.NewApp()

	App.Name = "hutch"
	App.Usage = "Build containers from versioned recipes; run commands in them."
	App.Version = "0.0.1"

	App.Writer = journal

	App.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, f",
			Value: "hutch.json",
			Usage: "Path of the config document",
		},
		cli.StringFlag{
			Name:  "base-dir, b",
			Usage: "Where cache, volumes, and workspaces live (default: $HUTCH_BASE, or /var/lib/hutch)",
		},
		cli.StringFlag{
			Name:  "images-dir",
			Usage: "Where base distro tarballs live (default: <base-dir>/images)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level",
		},
	}

	App.Commands = []cli.Command{
		RunCommandPattern(output),
		BuildCommandPattern(output),
		InitCommandPattern(),
	}

	// Reporting "no help topic for 'zyx'" and exiting with a *zero* is... silly.
	// A failure to hit a command should be an error.  Like, if a shell script
	// does `hutch somethingimportant`, there's no way it shouldn't *stop* when
	// that's not there.
	App.CommandNotFound = func(ctx *cli.Context, command string) {
		fmt.Fprintf(ctx.App.Writer, "'%s %v' is not a hutch subcommand\n", ctx.App.Name, command)
		panic(Exit.NewWith("unknown subcommand", SetExitCode(EXIT_BADARGS)))
	}

	if err := App.Run(args); err != nil {
		panic(Error.NewWith(err.Error(), SetExitCode(EXIT_BADARGS)))
	}
}

func journalLogger(ctx *cli.Context) log15.Logger {
	journal := log15.New()
	lvl := log15.LvlInfo
	if ctx.GlobalBool("debug") {
		lvl = log15.LvlDebug
	}
	journal.SetHandler(log15.LvlFilterHandler(lvl,
		log15.StreamHandler(ctx.App.Writer, log15.TerminalFormat())))
	return journal
}

// the engine stack behind every real subcommand, rooted per the global flags.
type engines struct {
	cache    *cache.Cache
	builder  *builder.Builder
	executor executor.Executor
}

func assembleEngines(ctx *cli.Context) engines {
	base := ctx.GlobalString("base-dir")
	if base == "" {
		base = def.Base()
	}
	imagesDir := ctx.GlobalString("images-dir")
	if imagesDir == "" {
		imagesDir = filepath.Join(base, "images")
	}
	c := cache.New(filepath.Join(base, "cache"))
	return engines{
		cache:    c,
		builder:  builder.New(c, imagesDir, ""),
		executor: userns.New(filepath.Join(base, "workspace"), filepath.Join(base, "volumes")),
	}
}

/*
	Runs the meat of a subcommand, converting the engine error taxonomy
	into user-facing CLI errors carrying the documented exit codes.
	Errors no one claimed stay untouched and bubble up as bugs.
*/
func convertErrors(fn func()) {
	try.Do(fn).CatchAll(func(err error) {
		cls := errors.GetClass(err)
		switch {
		case cls.Is(Error) || cls.Is(Exit):
			panic(err)
		case cls.Is(dispatch.CycleError):
			panic(Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_CYCLE)))
		case cls.Is(def.ConfigError):
			panic(Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_CONFIG)))
		case cls.Is(builder.Error):
			panic(Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_BUILDSTEP)))
		case cls.Is(executor.TaskExecError):
			panic(Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_EXEC)))
		case cls.Is(executor.Error), cls.Is(placer.Error), cls.Is(cache.Error):
			panic(Error.NewWith(errors.GetMessage(err), SetExitCode(EXIT_SETUP)))
		default:
			panic(err)
		}
	}).Done()
}
