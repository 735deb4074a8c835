package dispatch

import (
	"strings"

	"go.polydawn.net/hutch/def"
)

const (
	colorWhite = iota // untouched
	colorGrey         // on the traversal stack
	colorBlack        // finished
)

type frame struct {
	name string
	next int // offset of the next prerequisite to consider
}

/*
	Returns the commands to run, prerequisites strictly before their
	dependents and the target last, each command at most once no matter
	how many dependents share it.

	Iterative three-color depth-first walk; meeting a grey node means
	the traversal stack loops back on itself, which raises `CycleError`
	naming the cycle.  The walk touches no filesystem state, so a bad
	graph is rejected before anything runs.
*/
func prerequisiteOrder(cfg *def.Config, target string) []string {
	color := map[string]int{}
	var order []string
	var stack []frame

	push := func(name string) {
		color[name] = colorGrey
		stack = append(stack, frame{name: name})
	}
	push(target)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		cmd, ok := cfg.Commands[top.name]
		if !ok {
			if len(stack) > 1 {
				panic(def.ConfigError.New("command %q names unknown prerequisite %q", stack[len(stack)-2].name, top.name))
			}
			panic(def.ConfigError.New("no such command %q", top.name))
		}
		if top.next < len(cmd.Prerequisites) {
			dep := cmd.Prerequisites[top.next]
			top.next++
			switch color[dep] {
			case colorWhite:
				push(dep)
			case colorGrey:
				panic(CycleError.New("prerequisite cycle: %s", strings.Join(cyclePath(stack, dep), " -> ")))
			}
		} else {
			color[top.name] = colorBlack
			order = append(order, top.name)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}

// the portion of the stack from the repeated command onward, closed
// back to itself; this is the cycle as a human wants to read it.
func cyclePath(stack []frame, repeated string) []string {
	var path []string
	seen := false
	for _, f := range stack {
		if f.name == repeated {
			seen = true
		}
		if seen {
			path = append(path, f.name)
		}
	}
	return append(path, repeated)
}
