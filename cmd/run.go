// -- cmd/run.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/orbi-cli/internal/browser"
	"github.com/xkilldash9x/orbi-cli/internal/observability"
	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

// newSessionFactory wires the browser package into the worker template.
func newSessionFactory() worker.SessionFactory {
	return func(ctx context.Context) (worker.Session, error) {
		return browser.Open(ctx, appConfig.Browser, observability.GetLogger())
	}
}

// resolveCredentials reads the login credentials from flags or the
// ORBI_USERNAME/ORBI_PASSWORD environment variables.
func resolveCredentials(required bool) (worker.Credentials, error) {
	creds := worker.Credentials{
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
	}
	if required && (creds.Username == "" || creds.Password == "") {
		return worker.Credentials{}, fmt.Errorf("credentials required: set --username/--password or ORBI_USERNAME/ORBI_PASSWORD")
	}
	return creds, nil
}

// runWorker executes one action through the worker template: it streams
// progress lines to the terminal, turns the first interrupt into a
// cooperative cancel, and maps a failed outcome to a non-zero exit.
func runWorker(cmd *cobra.Command, action worker.Action) error {
	creds, err := resolveCredentials(action.NeedsLogin())
	if err != nil {
		return err
	}

	w := worker.New(action, worker.Config{
		Credentials: creds,
		Site:        appConfig.Site,
		Pacing:      appConfig.Pacing,
		Factory:     newSessionFactory(),
		Logger:      observability.GetLogger(),
	})

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		w.Cancel()
	}()

	// The worker gets its own context: an interrupt requests cooperative
	// cancellation and must not abort an in-flight browser call.
	w.Start(context.Background())

	for ev := range w.Progress() {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", ev.Time.Format("15:04:05"), ev.Message)
	}

	out := <-w.Outcome()
	<-w.Done()

	if !out.Success {
		return fmt.Errorf("%s", out.Message)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out.Message)
	for _, post := range out.Posts {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", post.ID, post.Title)
	}
	if out.Artifact != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\n", out.Artifact)
	}
	return nil
}
