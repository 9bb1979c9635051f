package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/climdash/internal/outwriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shellHelp = `Commands:
  show                  draw every chart
  status                list chart slots
  scenario <name>       recompute the scenario chart
  sensitivity <value>   recompute the sensitivity chart
  analytics             recompute every chart with advanced analytics
  import <file>         import a .json or .csv dataset
  load <id>             render a backend session
  export                save the displayed dataset as JSON
  query <text>          ask a free-text question
  history               list logged queries
  summary               summarize the displayed dataset
  compare               compare scenarios year by year
  reset                 destroy every chart
  help                  show this help
  quit                  leave the shell`

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// runShell reads one command per line from in until EOF or quit. Failed
// commands are printed and the loop goes on.
func runShell(ctx context.Context, d *dashboard, in io.Reader, out io.Writer, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			_, _ = fmt.Fprint(out, "climdash> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := shellCommand(ctx, d, out, fields[0], fields[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func shellCommand(ctx context.Context, d *dashboard, out io.Writer, name string, args []string) error {
	rest := strings.Join(args, " ")
	switch strings.ToLower(name) {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		_, err := fmt.Fprintln(out, shellHelp)
		return err
	case "show":
		return d.board.Render(out)
	case "status":
		return outwriter.WriteChartStatusTable(out, d.ctrl.Registry().Status())
	case "scenario":
		if rest == "" {
			return errors.New("usage: scenario <name>")
		}
		return d.ctrl.ChangeScenario(ctx, rest)
	case "sensitivity":
		value, err := strconv.Atoi(rest)
		if err != nil {
			return errors.New("usage: sensitivity <integer>")
		}
		return d.ctrl.ChangeSensitivity(ctx, value)
	case "analytics":
		return d.ctrl.RunAdvancedAnalytics(ctx)
	case "import":
		if rest == "" {
			return errors.New("usage: import <file>")
		}
		file, err := os.Open(rest)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		return d.ctrl.ImportFile(ctx, rest, file)
	case "load":
		if rest == "" {
			return errors.New("usage: load <id>")
		}
		return d.ctrl.LoadSession(ctx, rest)
	case "export":
		return d.ctrl.ExportCurrentState(ctx)
	case "query":
		answer, err := d.ctrl.Query(ctx, rest)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, answer)
		return err
	case "history":
		records, err := d.ctrl.QueryLog()
		if err != nil {
			return err
		}
		for _, r := range records {
			if _, err := fmt.Fprintf(out, "[%s] %s\n  %s\n", r.Timestamp.Format("15:04:05"), r.Query, r.Response); err != nil {
				return err
			}
		}
		return nil
	case "summary":
		summary, err := d.ctrl.Summary(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, summary)
		return err
	case "compare":
		rows, err := d.ctrl.CompareScenarios(ctx)
		if err != nil {
			return err
		}
		return outwriter.WriteComparisonTable(out, rows, cfg)
	case "reset":
		return d.ctrl.Reinitialize()
	}
	return fmt.Errorf("unknown command %q, try help", name)
}

// shellCmd runs a long-lived interactive session.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run an interactive dashboard session",
	Long: `Keep one dashboard alive and drive it with commands read from stdin.

Charts keep their handles between commands, so repeated scenario or
sensitivity changes update the same panels in place. Type 'help' for the
command list.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			prompt := term.IsTerminal(int(os.Stdin.Fd()))
			if prompt {
				_, _ = fmt.Fprintln(os.Stdout, "Type 'help' for commands.")
			}
			return runShell(ctx, d, os.Stdin, os.Stdout, prompt)
		})
	},
}
