package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jg-phare/nudge/pkg/client"
	"github.com/jg-phare/nudge/pkg/protocol"
)

var completeFlags struct {
	session    string
	cursor     int
	cwd        string
	exitCode   int
	gitRoot    string
	gitState   string
	shellMode  string
	timeBucket uint64
	format     string
}

func init() {
	f := completeCmd.Flags()
	f.StringVar(&completeFlags.session, "session", "", "shell session id (e.g. bash-1234)")
	f.IntVar(&completeFlags.cursor, "cursor", -1, "cursor byte offset (defaults to end of buffer)")
	f.StringVar(&completeFlags.cwd, "cwd", "", "working directory (defaults to the current one)")
	f.IntVar(&completeFlags.exitCode, "exit-code", 0, "exit code of the previous command")
	f.StringVar(&completeFlags.gitRoot, "git-root", "", "repository root, when known")
	f.StringVar(&completeFlags.gitState, "git-state", "", "opaque git state digest")
	f.StringVar(&completeFlags.shellMode, "mode", "", "shell mode hint (e.g. zsh-auto, bash-popup)")
	f.Uint64Var(&completeFlags.timeBucket, "time-bucket", 0, "coarse time bucket for auto mode")
	f.StringVar(&completeFlags.format, "format", "plain", "output format: plain, list, or json")
	rootCmd.AddCommand(completeCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <buffer>",
	Short: "Request a completion for the given command line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buffer := args[0]

		cwd := completeFlags.cwd
		if cwd == "" {
			var err error
			if cwd, err = os.Getwd(); err != nil {
				return err
			}
		}
		cursor := completeFlags.cursor
		if cursor < 0 || cursor > len(buffer) {
			cursor = len(buffer)
		}

		var exitCode *int
		if cmd.Flags().Changed("exit-code") {
			exitCode = &completeFlags.exitCode
		}

		req := protocol.NewCompletionRequest(completeFlags.session, buffer, cursor, cwd, exitCode)
		req.GitRoot = completeFlags.gitRoot
		req.GitState = completeFlags.gitState
		req.ShellMode = completeFlags.shellMode
		req.TimeBucket = completeFlags.timeBucket

		resp, err := client.Complete(req)
		if err != nil {
			return err
		}

		switch client.OutputFormat(completeFlags.format) {
		case client.FormatList:
			fmt.Print(client.BuildListOutput(resp, buffer))
		case client.FormatJSON:
			out, err := client.BuildJSONOutput(resp)
			if err != nil {
				return err
			}
			fmt.Println(out)
		default:
			fmt.Print(client.BuildPlainOutput(resp))
		}
		return nil
	},
}
