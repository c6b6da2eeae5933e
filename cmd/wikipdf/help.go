package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wikipdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert exported wiki HTML pages to PDF")
	fmt.Fprintln(w, "  doctor     Check Chrome, Mermaid.js, and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'wikipdf help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wikipdf convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert exported wiki HTML pages to PDF through headless Chrome.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML file or directory (optional if config has input.defaultPath)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>              Output .pdf file or directory")
	fmt.Fprintln(w, "  -c, --config <name>              Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>                Parallel workers (0 = auto, max 8)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Chrome:")
	fmt.Fprintln(w, "      --chrome-path <path>         Chrome/Chromium executable (default: download)")
	fmt.Fprintln(w, "      --cache-dir <dir>            Where the downloaded browser is kept")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --mermaid                    Render Mermaid diagrams as PNG images")
	fmt.Fprintln(w, "      --mermaid-js <path>          Local Mermaid.js file (implies --mermaid)")
	fmt.Fprintln(w, "      --diagram-mode <s>           live: print rendered diagrams (default)")
	fmt.Fprintln(w, "                                   static: print the captured images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Header/Footer:")
	fmt.Fprintln(w, "      --header-template <html>     Inline header HTML")
	fmt.Fprintln(w, "      --header-template-path <f>   Header HTML file")
	fmt.Fprintln(w, "      --footer-template <html>     Inline footer HTML")
	fmt.Fprintln(w, "      --footer-template-path <f>   Footer HTML file")
	fmt.Fprintln(w, "                                   Chrome fills pageNumber, totalPages, date,")
	fmt.Fprintln(w, "                                   title, and url classes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Timeouts:")
	fmt.Fprintln(w, "      --launch-timeout <d>         Browser start (default 2m)")
	fmt.Fprintln(w, "      --load-timeout <d>           Page load (default 1m)")
	fmt.Fprintln(w, "      --diagram-timeout <d>        Diagram runtime wait (default 10s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                      Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                    Show conversion progress and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  WIKIPDF_CONFIG, WIKIPDF_OUTPUT, WIKIPDF_CHROME_PATH, WIKIPDF_CACHE_DIR,")
	fmt.Fprintln(w, "  WIKIPDF_MERMAID_JS, WIKIPDF_DIAGRAM_MODE, WIKIPDF_WORKERS")
	fmt.Fprintln(w, "  Flags override environment, which overrides the config file.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wikipdf doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that conversions can run on this machine.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --chrome-path <path>   Chrome executable to check")
	fmt.Fprintln(w, "      --cache-dir <dir>      Browser cache to check")
	fmt.Fprintln(w, "      --mermaid-js <path>    Mermaid.js file to check")
	fmt.Fprintln(w, "      --json                 Machine-readable output")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: wikipdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: wikipdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
