package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	orb "github.com/mkuitune/orb"
)

const (
	appName            = "orb"
	defaultHistoryFile = ".orb_history"
	defaultPrompt      = "orb> "
	defaultPromptCont  = "...> "
	rcFile             = ".orbrc.yaml"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd())

func red(s string) string {
	if !colorEnabled {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}

func blue(s string) string {
	if !colorEnabled {
		return s
	}
	return "\x1b[94m" + s + "\x1b[0m"
}

// replConfig is read from .orbrc.yaml in the working directory or the home
// directory (working directory wins). Every field is optional.
type replConfig struct {
	Prompt     string `yaml:"prompt"`
	PromptCont string `yaml:"promptCont"`
	History    string `yaml:"history"`
	EchoTypes  bool   `yaml:"echoTypes"`
}

func loadConfig() replConfig {
	cfg := replConfig{
		Prompt:     defaultPrompt,
		PromptCont: defaultPromptCont,
		History:    defaultHistoryFile,
	}
	paths := []string{rcFile}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, rcFile))
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s: ignoring %s: %v\n", appName, p, err)
		}
		break
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaultPrompt
	}
	if cfg.PromptCont == "" {
		cfg.PromptCont = defaultPromptCont
	}
	if cfg.History == "" {
		cfg.History = defaultHistoryFile
	}
	return cfg
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "version":
		fmt.Println(orb.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`orb %s

Usage:
  %s run <file> [args...]   Run a script.
  %s repl                   Start the interactive interpreter.
  %s version                Print the version.

`, orb.Version, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file> [args...]\n", appName)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, args[0], err)
		return 1
	}
	rt := orb.New()
	rt.SetArgs(args)
	v, rerr := rt.ReadEval(string(src))
	if rerr != nil {
		fmt.Fprintln(os.Stderr, red(orb.WrapErrorWithSource(rerr, string(src)).Error()))
		return 1
	}
	v.Release()
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

const helpText = `Commands:
  quit            Exit the interpreter.
  help            Show this help.
  memory          Display used memory (live/reserved).
  gc              Force a collection and show the effect.
  eval            Evaluate input lines (default).
  print           Pretty-print the parse of input lines instead.
  echo-types-on   Prefix printed scalars with their type tags.
  echo-types-off  Plain printing.
  envprint        Print every binding of the environment.
`

func cmdRepl() int {
	cfg := loadConfig()
	fmt.Printf("orb %s. Type 'help' for commands, 'quit' to exit.\n", orb.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, cfg.History)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	rt := orb.New()
	evalMode := true
	echoTypes := cfg.EchoTypes

	for {
		code, ok := readForm(ln, cfg.Prompt, cfg.PromptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		line := strings.TrimSpace(code)
		if line == "" {
			continue
		}

		switch line {
		case "quit":
			return 0
		case "help":
			fmt.Print(helpText)
			continue
		case "memory":
			printMemory(rt)
			continue
		case "gc":
			fmt.Print("Before collection ")
			printMemory(rt)
			rt.GC()
			fmt.Print("After collection  ")
			printMemory(rt)
			continue
		case "eval":
			evalMode = true
			continue
		case "print":
			evalMode = false
			continue
		case "echo-types-on":
			echoTypes = true
			continue
		case "echo-types-off":
			echoTypes = false
			continue
		case "envprint":
			rt.EachBinding(func(name string, v orb.Value) {
				fmt.Printf("%s %s\n", name, orb.FormatValue(v))
			})
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		tree, err := rt.Parse(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red("Parse error: "+orb.WrapErrorWithSource(err, code).Error()))
			continue
		}
		if !evalMode {
			fmt.Println(blue(orb.FormatValue(tree)))
			tree.Release()
			continue
		}
		v, err := rt.Eval(tree)
		tree.Release()
		if err != nil {
			fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
			continue
		}
		if echoTypes {
			fmt.Println(blue(orb.FormatValueTyped(v)))
		} else {
			fmt.Println(blue(orb.FormatValue(v)))
		}
		v.Release()
	}
}

// readForm reads lines until the scopes balance, so multi-line forms can be
// typed naturally.
func readForm(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if err == liner.ErrPromptAborted {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if perr := orb.CheckScopes(src); perr != nil && orb.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func memoryString(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f kB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func printMemory(rt *orb.Runtime) {
	fmt.Printf("(live/reserved): %s / %s\n", memoryString(rt.LiveBytes()), memoryString(rt.ReservedBytes()))
}
