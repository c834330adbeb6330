package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	sessionID string
)

// #region main
func main() {
	rootCmd := &cobra.Command{
		Use:   "controller",
		Short: "Conversational intent arbiter",
		Long: `controller routes chat input to one grounded UI action, a clarifying
list, or an answer about recent activity.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults plus environment when empty)")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session over stdin",
		Long: `chat reads one turn per line and prints the dispatcher's answer.
Lines starting with / simulate the UI side:

  /register <id> <label> [| item | item ...]   a widget registers
  /open <id>                                   a widget gains focus
  /close <id>                                  a widget closes
  /ui dismiss                                  the UI closes the open list
  /ui open <id>                                the user opens a widget or panel directly
  /latch                                       show latch and list state
  /trace                                       show recent actions
  /quit`,
		RunE: runChat,
	}
	chatCmd.Flags().StringVar(&sessionID, "session", "", "resume a session by ID (new session when empty)")

	rootCmd.AddCommand(chatCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
// #endregion main

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfgFile, sessionID)
	if err != nil {
		return err
	}
	defer a.Close()

	c := a.console(cmd.OutOrStdout())
	c.banner()
	return c.run(ctx, cmd.InOrStdin())
}
