package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/medicines-web/backend"
	"github.com/giygas/medicines-web/config"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/presenter"
	"github.com/giygas/medicines-web/validation"
	"github.com/spf13/cobra"
)

type appKey struct{}

// app is what every subcommand needs, built once by the root command
type app struct {
	cfg    *config.Config
	client *backend.Client
}

func fromContext(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medicinesctl",
		Short:         "Command line client for the medicines backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if backendURL, _ := cmd.Flags().GetString("backend-url"); backendURL != "" {
				cfg.BackendURL = backendURL
			}
			if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
				cfg.BackendTimeout = timeout
			}

			level := "error"
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = "debug"
			}
			// console only: the CLI never writes the server's log files
			logging.InitLogger(logging.Options{Env: cfg.Env, Level: level})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, &app{
				cfg:    cfg,
				client: backend.NewClient(cfg),
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("backend-url", "", "Backend base URL (defaults to BACKEND_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Backend call timeout (defaults to BACKEND_TIMEOUT_SECONDS)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log backend calls")

	rootCmd.AddCommand(
		newListCmd(),
		newAddCmd(),
	)

	return rootCmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the medicines list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())

			records, err := a.client.FetchMedicines(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not load medicines: %w", err)
			}
			table := presenter.Render(records)

			if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), presenter.RenderHTML(table))
				return err
			}
			if err := presenter.RenderText(cmd.OutOrStdout(), table); err != nil {
				return err
			}

			summary := presenter.Summarize(table)
			if summary.Unavailable > 0 || summary.Invalid > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d unavailable and %d invalid prices\n", summary.Unavailable, summary.Invalid)
			}
			return nil
		},
	}

	cmd.Flags().Bool("html", false, "Print the table fragment served by the web page")

	return cmd
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medicine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())

			name, _ := cmd.Flags().GetString("name")
			price, _ := cmd.Flags().GetString("price")

			strict := a.cfg.StrictFormValidation
			if cmd.Flags().Changed("strict") {
				strict, _ = cmd.Flags().GetBool("strict")
			}

			request, err := validation.NewFormValidator(strict).ValidateCreate(name, price)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.BackendTimeout+5*time.Second)
			defer cancel()

			result, err := a.client.CreateMedicine(ctx, request)
			if err != nil {
				return err
			}
			if !result.OK {
				return errors.New(result.Message)
			}

			message := result.Message
			if message == "" {
				message = "Medicine added"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}

	cmd.Flags().StringP("name", "n", "", "Medicine name")
	cmd.Flags().StringP("price", "p", "", "Medicine price")
	cmd.Flags().Bool("strict", true, "Validate the form before sending it (defaults to STRICT_FORM_VALIDATION)")

	return cmd
}
