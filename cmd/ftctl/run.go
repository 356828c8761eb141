package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/session"
)

// newRunCmd exercises the scalar session façade end to end against a tiny
// line-oriented script. Supported lines:
//
//	var <name> <value> [grad]   declare a leaf, optionally requiring grad
//	add <name> <lhs> <rhs>      lhs + rhs, routed through the dispatcher
//	sub <name> <lhs> <rhs>
//	mul <name> <lhs> <rhs>
//	div <name> <lhs> <rhs>
//	backward <name>             run a reverse pass rooted at name
//	print <name>                print name's forward value
//	grad <name>                 print name's accumulated gradient
func newRunCmd(opts *rootOptions) *cobra.Command {
	var hardened bool

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a tiny arithmetic script through the session façade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := dispatch.Strict
			if hardened {
				mode = dispatch.Hardened
			}
			return runScript(args[0], mode, opts)
		},
	}

	cmd.Flags().BoolVar(&hardened, "hardened", false, "use hardened dispatch mode and reentrancy defaults")
	return cmd
}

func runScript(path string, mode dispatch.ExecutionMode, opts *rootOptions) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ftctl run: %w", err)
	}
	defer file.Close()

	s := session.NewSession(mode)
	if opts != nil {
		s.WithLogger(opts.logger)
	}
	names := map[string]int{}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := runLine(s, names, line); err != nil {
			return fmt.Errorf("ftctl run: line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func runLine(s *session.Session, names map[string]int, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "var":
		if len(fields) < 3 {
			return fmt.Errorf("var requires a name and a value")
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return err
		}
		requiresGrad := len(fields) >= 4 && fields[3] == "grad"
		names[fields[1]] = s.Var(value, requiresGrad)
		return nil

	case "add", "sub", "mul", "div":
		if len(fields) != 4 {
			return fmt.Errorf("%s requires dest, lhs, rhs", fields[0])
		}
		lhs, ok := names[fields[2]]
		if !ok {
			return fmt.Errorf("unknown variable %q", fields[2])
		}
		rhs, ok := names[fields[3]]
		if !ok {
			return fmt.Errorf("unknown variable %q", fields[3])
		}
		var (
			id  int
			err error
		)
		switch fields[0] {
		case "add":
			id, err = s.Add(lhs, rhs)
		case "sub":
			id, err = s.Sub(lhs, rhs)
		case "mul":
			id, err = s.Mul(lhs, rhs)
		case "div":
			id, err = s.Div(lhs, rhs)
		}
		if err != nil {
			return err
		}
		names[fields[1]] = id
		return nil

	case "backward":
		if len(fields) != 2 {
			return fmt.Errorf("backward requires a node name")
		}
		node, ok := names[fields[1]]
		if !ok {
			return fmt.Errorf("unknown variable %q", fields[1])
		}
		return s.Backward(node)

	case "print":
		if len(fields) != 2 {
			return fmt.Errorf("print requires a node name")
		}
		node, ok := names[fields[1]]
		if !ok {
			return fmt.Errorf("unknown variable %q", fields[1])
		}
		value, err := s.Value(node)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %g\n", fields[1], value)
		return nil

	case "grad":
		if len(fields) != 2 {
			return fmt.Errorf("grad requires a node name")
		}
		node, ok := names[fields[1]]
		if !ok {
			return fmt.Errorf("unknown variable %q", fields[1])
		}
		grad, err := s.Gradient(node)
		if err != nil {
			return err
		}
		if grad == nil {
			fmt.Printf("grad(%s) = <none>\n", fields[1])
			return nil
		}
		fmt.Printf("grad(%s) = %g\n", fields[1], *grad)
		return nil

	default:
		return fmt.Errorf("unknown instruction %q", fields[0])
	}
}
