package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

const description = `Keeps track of assignments and alerts you ahead of their due time.

Without a command the planner starts its HTTP server. Reminders are
delivered to websocket clients on /ws and written to the log.`

func main() {
	if err := run(os.Args, afero.NewOsFs(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "planner:", err)
		os.Exit(1)
	}
}

func run(args []string, fs afero.Fs, stdout, stderr io.Writer) error {
	e := &env{fs: fs, stdout: stdout, stderr: stderr}

	app := cli.App{
		Name:        "planner",
		HelpName:    "planner",
		Usage:       "assignment planner with due-date reminders",
		UsageText:   "planner [global options] <command> [arguments...]",
		Description: description,
		Writer:      stdout,
		ErrWriter:   stderr,
		Flags:       globalFlags,
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server and the reminder engine",
				Action: e.serve,
			},
			{
				Name:      "import",
				Usage:     "append the rows of a CSV file",
				ArgsUsage: "<file.csv>",
				Action:    e.importCSV,
			},
			{
				Name:      "export",
				Usage:     "write every assignment as CSV",
				ArgsUsage: "[file.csv]",
				Action:    e.exportCSV,
			},
			{
				Name:      "ics",
				Usage:     "write a calendar event for one assignment",
				ArgsUsage: "<id> [file.ics]",
				Action:    e.exportICS,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "print the assignments",
				Flags:   listFlags,
				Action:  e.list,
			},
		},
		Action:      e.serve,
		HideVersion: true,
	}
	return app.Run(args)
}
