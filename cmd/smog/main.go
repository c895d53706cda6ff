// Command smog compiles and runs programs, disassembles their
// bytecode, and hosts an interactive REPL.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/kristofer/smog/cmd/smog/replui"
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/parser"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

// Exit codes distinguish which stage failed, so shell scripts driving
// smog can tell a syntax mistake from a crashing program without
// scraping stderr.
const (
	exitOK = iota
	// exitLexError is reserved: lexing has no public entry point of its
	// own here, since parser.New tokenizes internally - a malformed
	// token still surfaces as exitParseError.
	exitLexError
	exitParseError
	exitCompileError
	exitRuntimeError
	exitUsageError
)

func main() {
	app := &cli.App{
		Name:  "smog",
		Usage: "a small dynamically-typed scripting language",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "log each stage (lex/parse/compile/run) to stderr"},
			&cli.StringFlag{Name: "config", Usage: "path to a .smogrc.yaml file", Value: ".smogrc.yaml"},
		},
		Commands: []*cli.Command{
			runCommand,
			replCommand,
			disasmCommand,
		},
		// With no subcommand given, start the REPL - matching any
		// interpreter CLI's expectation that running it bare drops you
		// into an interactive session.
		Action: func(c *cli.Context) error {
			return replCommand.Action(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsageError)
	}
}

func newLogger(c *cli.Context, sessionID string) zerolog.Logger {
	level := zerolog.Disabled
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Str("session", sessionID).Logger()
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "compile and execute a source file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "debug", Usage: "attach an interactive debugger, paused before the first instruction"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			cli.ShowSubcommandHelp(c)
			os.Exit(exitUsageError)
		}
		filename := c.Args().First()
		sessionID := uuid.NewString()
		log := newLogger(c, sessionID)

		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", filename, err)
			os.Exit(exitUsageError)
		}

		cfg, err := loadConfig(c.String("config"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(exitUsageError)
		}

		log.Debug().Str("file", filename).Msg("parsing")
		p := parser.New(string(data))
		program, err := p.Parse()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			os.Exit(exitParseError)
		}

		log.Debug().Msg("compiling")
		comp := compiler.New()
		if c.Bool("verbose") {
			comp.AttachLogger(log)
		}
		co, err := comp.Compile(program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
			os.Exit(exitCompileError)
		}

		machine := vm.NewWithConfig(cfg.StackSize, cfg.MaxCallDepth)
		if c.Bool("verbose") {
			machine.AttachLogger(log)
		}
		if c.Bool("debug") || cfg.DebugOnStart {
			d := vm.NewDebugger(machine)
			d.Enable()
			d.SetStepMode(true)
			machine.AttachDebugger(d)
		}

		log.Debug().Msg("running")
		result, err := machine.Run(co)
		if err != nil {
			exc := exceptionFromRunError(err)
			fmt.Fprintf(os.Stderr, "%s\n", exc.Inspect())
			os.Exit(exitRuntimeError)
		}

		if result != nil && result != value.NullValue {
			fmt.Println(result.Inspect())
		}
		return nil
	},
}

var replCommand = &cli.Command{
	Name:  "repl",
	Usage: "start the interactive REPL",
	Action: func(c *cli.Context) error {
		return replui.Start(replui.Options{
			NoColor: os.Getenv("NO_COLOR") != "",
			Debug:   c.Bool("verbose"),
		})
	},
}

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "disassemble a source file's compiled bytecode",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			cli.ShowSubcommandHelp(c)
			os.Exit(exitUsageError)
		}
		filename := c.Args().First()

		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", filename, err)
			os.Exit(exitUsageError)
		}

		p := parser.New(string(data))
		program, err := p.Parse()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			os.Exit(exitParseError)
		}

		co, err := compiler.New().Compile(program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
			os.Exit(exitCompileError)
		}

		fmt.Println(bytecode.Disassemble(co))
		return nil
	},
}

// exceptionFromRunError converts whatever Run returned into an
// Exception value so the reporter and any future in-language surface
// share one representation of "what went wrong".
func exceptionFromRunError(err error) value.Exception {
	if rerr, ok := err.(*vm.RuntimeError); ok {
		return value.NewException(string(rerr.Kind), rerr.Message)
	}
	return value.NewException("Error", err.Error())
}
