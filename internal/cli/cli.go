// Package cli maps a command-line invocation onto a Command.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"expenses/internal/core"
)

// Command names form a closed set.
const (
	CommandAdd    = "add"
	CommandList   = "list"
	CommandDelete = "delete"
	CommandExport = "export"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Command is a parsed invocation. Only the fields of Name are populated.
type Command struct {
	Name string
	File string

	// add
	Amount   core.Amount
	Category string
	Note     string

	// delete
	ID int64

	// export
	DB string
}

// Mutates reports whether the command rewrites the data file.
func (c *Command) Mutates() bool {
	return c.Name == CommandAdd || c.Name == CommandDelete
}

type amountValue struct {
	amount *core.Amount
}

func (v amountValue) String() string {
	if v.amount == nil {
		return ""
	}
	return v.amount.String()
}

func (v amountValue) Set(s string) error {
	a, err := core.ParseAmount(s)
	if err != nil {
		return errors.New("not a number")
	}
	*v.amount = a
	return nil
}

// Parse processes command-line arguments. It returns the Command, a boolean
// indicating that help was printed and the program should exit cleanly,
// or an ExitError.
func Parse(args []string, output io.Writer, defaultFile string) (*Command, bool, error) {
	global := flag.NewFlagSet("expenses", flag.ContinueOnError)
	global.SetOutput(output)
	global.Usage = func() {
		fmt.Fprint(output, `
CLI Expense Tracker

Usage:
  expenses [--file PATH] <command> [options]

Commands:
  add      Add new expense
  list     List expenses
  delete   Delete expense by ID
  export   Copy expenses into a SQLite database

Options:
`)
		global.PrintDefaults()
	}

	cmd := &Command{}
	global.StringVar(&cmd.File, "file", defaultFile, "JSON data file")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}

	if global.NArg() == 0 {
		global.Usage()
		return nil, false, usageError("a command is required: one of %s", strings.Join(commandNames(), ", "))
	}
	if strings.TrimSpace(cmd.File) == "" {
		return nil, false, usageError("--file cannot be empty")
	}

	cmd.Name = global.Arg(0)
	sub, required, err := commandFlags(cmd, output)
	if err != nil {
		global.Usage()
		return nil, false, err
	}

	if err := sub.Parse(global.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	if sub.NArg() > 0 {
		return nil, false, usageError("%s: unexpected arguments: %s", cmd.Name, strings.Join(sub.Args(), " "))
	}

	seen := map[string]bool{}
	sub.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	var missing []string
	for _, name := range required {
		if !seen[name] {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return nil, false, usageError("%s: missing required flags: %s", cmd.Name, strings.Join(missing, ", "))
	}

	return cmd, false, nil
}

// commandFlags builds the flag set of cmd.Name bound to cmd's fields and
// returns the names of its required flags.
func commandFlags(cmd *Command, output io.Writer) (*flag.FlagSet, []string, error) {
	fs := flag.NewFlagSet("expenses "+cmd.Name, flag.ContinueOnError)
	fs.SetOutput(output)

	var required []string
	switch cmd.Name {
	case CommandAdd:
		fs.Var(amountValue{amount: &cmd.Amount}, "amount", "expense amount, must be positive")
		fs.StringVar(&cmd.Category, "category", "", "expense category")
		fs.StringVar(&cmd.Note, "note", "", "free-form note")
		required = []string{"amount", "category"}
	case CommandList:
	case CommandDelete:
		fs.Int64Var(&cmd.ID, "id", 0, "id of the expense to delete")
		required = []string{"id"}
	case CommandExport:
		fs.StringVar(&cmd.DB, "db", "", "SQLite database to write")
		required = []string{"db"}
	default:
		return nil, nil, usageError("unknown command %q: must be one of %s", cmd.Name, strings.Join(commandNames(), ", "))
	}
	return fs, required, nil
}

func commandNames() []string {
	return []string{CommandAdd, CommandList, CommandDelete, CommandExport}
}
