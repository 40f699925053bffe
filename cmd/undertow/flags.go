package main

import (
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/yourusername/undertow/pkg/undertow/handlers"
)

// defaultPort is the port served when -p is absent.
const defaultPort = 80

// options holds the command-line settings.
type options struct {
	Port        int
	Verbose     bool
	StaticDir   string
	MetricsAddr string
}

func defaultOptions() options {
	return options{
		Port:      defaultPort,
		StaticDir: handlers.DefaultStaticRoot,
	}
}

// parseArgs reads args (without the program name). Unrecognized arguments,
// flags missing their value and unparseable ports print the usage line to
// out and are otherwise ignored.
func parseArgs(prog string, args []string, out io.Writer) options {
	opts := defaultOptions()
	usage := color.New(color.FgYellow)

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)

		switch {
		case args[i] == "-p" && hasValue:
			i++
			port, err := strconv.Atoi(args[i])
			if err != nil || port < 0 || port > 65535 {
				usage.Fprintf(out, "Usage: %s [-p port] [-v] [-static dir] [-metrics addr]\n", prog)
				continue
			}
			opts.Port = port
		case args[i] == "-v":
			opts.Verbose = true
		case args[i] == "-static" && hasValue:
			i++
			opts.StaticDir = args[i]
		case args[i] == "-metrics" && hasValue:
			i++
			opts.MetricsAddr = args[i]
		default:
			usage.Fprintf(out, "Usage: %s [-p port] [-v] [-static dir] [-metrics addr]\n", prog)
		}
	}
	return opts
}
