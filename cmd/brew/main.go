package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"brew/internal/interp"
	"brew/internal/util"
)

const (
	ExitOK      = 0
	ExitCompile = 1
	ExitRuntime = 2
)

var (
	// Version is the current version of the brew binary, set at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile   string
	debugAST     bool
	maxCallDepth int
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// interpreter config
	flag.StringVar(&configFile, "config", "", "Path to a TOML configuration file")
	flag.IntVar(&maxCallDepth, "max-depth", 0, "Maximum interpreted call depth (0 uses the default)")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Render the AST as a JSON file")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	config := util.Configuration{
		Version:      Version,
		BuildDate:    BuildDate,
		Commit:       Commit,
		BrewHome:     os.Getenv("BREW_HOME"),
		LogLevel:     logLevel,
		LogFile:      logFile,
		DebugAST:     debugAST,
		MaxCallDepth: maxCallDepth,
	}
	if err := util.LoadConfigFile(configFile, &config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitCompile
	}
	// flags set explicitly on the command line beat file values
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		case "debug-ast":
			config.DebugAST = debugAST
		case "max-depth":
			config.MaxCallDepth = maxCallDepth
		}
	})

	// Creates a new Logger that uses a JSONHandler to write to stderr
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config.LogFile)
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return ExitOK
	}

	if help {
		printHelp()
		return ExitOK
	}

	fileName := flag.Arg(0)
	if fileName == "" {
		fmt.Fprintln(os.Stderr, "no source file given")
		printHelp()
		return ExitCompile
	}

	source, err := os.ReadFile(fileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", fileName, err)
		return ExitCompile
	}

	opts := interp.Options{
		MaxCallDepth: config.MaxCallDepth,
	}
	if config.DebugAST {
		opts.DebugASTPath = fileName + ".ast.json"
	}

	slog.Debug("executing source file", slog.String("file", fileName))

	if err := interp.Run(string(source), os.Stdout, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var compileErr *interp.CompileError
		if errors.As(err, &compileErr) {
			return ExitCompile
		}
		return ExitRuntime
	}
	return ExitOK
}

func configureLogWriter(logFile string) *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		// Create parent directories if they don't exist
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("brew version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: brew [options] filename

Options:
  -config <path>     Path to a TOML configuration file.
  -max-depth <n>     Maximum interpreted call depth. Default is 5000.
  -debug-ast         Render the AST as a JSON file next to the source.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the Brew programming language.

Examples:
  brew myfile.brew              Execute the provided Brew file
  brew -debug-ast myfile.brew   Execute and dump the AST as JSON
  brew -log-level=debug x.brew  Execute with debug logging enabled

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
