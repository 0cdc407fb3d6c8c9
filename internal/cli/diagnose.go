package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jg-phare/nudge/pkg/client"
	"github.com/jg-phare/nudge/pkg/protocol"
)

// stderrReadCap bounds how much captured stderr the client ships; the
// daemon truncates again to diagnosis.max_stderr_size.
const stderrReadCap = 64 * 1024

var diagnoseFlags struct {
	session    string
	exitCode   int
	cwd        string
	stderrFile string
}

func init() {
	f := diagnoseCmd.Flags()
	f.StringVar(&diagnoseFlags.session, "session", "", "shell session id")
	f.IntVar(&diagnoseFlags.exitCode, "exit-code", 1, "exit code of the failed command")
	f.StringVar(&diagnoseFlags.cwd, "cwd", "", "working directory (defaults to the current one)")
	f.StringVar(&diagnoseFlags.stderrFile, "stderr-file", "", "file holding the captured stderr")
	rootCmd.AddCommand(diagnoseCmd)
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <command>",
	Short: "Ask the daemon to explain a failed command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd := diagnoseFlags.cwd
		if cwd == "" {
			var err error
			if cwd, err = os.Getwd(); err != nil {
				return err
			}
		}

		req := protocol.NewDiagnosisRequest(diagnoseFlags.session, args[0], diagnoseFlags.exitCode, cwd)
		if diagnoseFlags.stderrFile != "" {
			if raw, err := os.ReadFile(diagnoseFlags.stderrFile); err == nil {
				if len(raw) > stderrReadCap {
					raw = raw[:stderrReadCap]
				}
				req.Stderr = string(raw)
			}
		}

		resp, err := client.Diagnose(req)
		if err != nil {
			return err
		}
		if resp.Error != nil {
			fmt.Fprintf(os.Stderr, "diagnosis failed: %s\n", resp.Error.Message)
			return nil
		}

		fmt.Println(resp.Diagnosis)
		if resp.Suggestion != "" {
			fmt.Println(resp.Suggestion)
		}
		return nil
	},
}
