// Command rtengine is the interactive query-submission CLI, built on
// github.com/spf13/cobra, grounded on KartikBazzad-bunbase's
// platform/cmd/cli/main.go subcommand structure (root command plus one
// RunE-backed subcommand per server verb).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radhaisme/flumebase/client"
	"github.com/radhaisme/flumebase/config"
	"github.com/radhaisme/flumebase/engine"
	"github.com/radhaisme/flumebase/local"
	"github.com/radhaisme/flumebase/session"
)

func flowID(s string) local.FlowID { return local.FlowID(s) }

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	eng := engine.New(config.New(), log)
	console := client.New(os.Stdout)
	sess := session.NewWithID(session.Local, console)
	eng.Sessions.Connect(sess)

	if err := rootCmd(eng, console).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(eng *engine.Engine, console *client.Console) *cobra.Command {
	root := &cobra.Command{
		Use:   "rtengine",
		Short: "Submit and manage continuous queries against an in-process rtengine",
	}

	root.AddCommand(
		submitCmd(eng, console),
		listCmd(eng, console),
		cancelCmd(eng),
		joinCmd(eng),
		replCmd(eng, console),
	)
	return root
}

func submitCmd(eng *engine.Engine, console *client.Console) *cobra.Command {
	var autowatch bool
	cmd := &cobra.Command{
		Use:                   "submit [query]",
		Short:                 "Submit one query and print its result messages",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("submit requires exactly one quoted query argument")
			}
			options := map[string]string{
				"rtengine.flow.autowatch":              strconv.FormatBool(autowatch),
				"rtengine.query.submitter.session.id":  session.Local,
			}
			result := eng.Submit(args[0], options)
			console.RenderMessages(result.Messages)
			if result.FlowID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "flow_id: %s\n", result.FlowID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&autowatch, "watch", true, "automatically watch the deployed flow's output")
	return cmd
}

func listCmd(eng *engine.Engine, console *client.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every active flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			for id, info := range eng.ListFlows() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, info.State, info.Query)
			}
			return nil
		},
	}
}

func cancelCmd(eng *engine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [flow_id]",
		Short: "Cancel a running flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("cancel requires exactly one flow_id argument")
			}
			eng.CancelFlow(flowID(args[0]))
			return nil
		},
	}
}

func joinCmd(eng *engine.Engine) *cobra.Command {
	var timeoutMs int
	cmd := &cobra.Command{
		Use:   "join [flow_id]",
		Short: "Block until a flow closes, or a timeout elapses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("join requires exactly one flow_id argument")
			}
			closed := eng.JoinFlow(flowID(args[0]), time.Duration(timeoutMs)*time.Millisecond)
			fmt.Fprintf(cmd.OutOrStdout(), "closed: %v\n", closed)
			return nil
		},
	}
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "milliseconds to wait; 0 waits forever")
	return cmd
}

func replCmd(eng *engine.Engine, console *client.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read queries from stdin, one per line, until EOF",
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}
				result := eng.Submit(line, map[string]string{})
				console.RenderMessages(result.Messages)
				if result.FlowID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "flow_id: %s\n", result.FlowID)
				}
			}
			return scanner.Err()
		},
	}
}
