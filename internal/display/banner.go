// Package display provides the startup banner and human-readable size
// formatting for run summaries.
package display

import (
	"fmt"
	"os"

	"github.com/neurostage/bidsify/internal/logging"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if logging.Magenta != "" {
		fmt.Fprint(os.Stdout, "\033[1;95m")
	}
	fmt.Fprint(os.Stdout, ` ____ ___ ____  ____  _  __
| __ )_ _|  _ \/ ___|(_)/ _|_   _
|  _ \| || | | \___ \| | |_| | | |
| |_) | || |_| |___) | |  _| |_| |
|____/___|____/|____/|_|_|  \__, |
                            |___/
`)
	if logging.Magenta != "" {
		fmt.Fprintln(os.Stdout, logging.NC)
	}
}
