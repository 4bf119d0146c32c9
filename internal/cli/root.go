package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"procurement-portal/internal/api"
	"procurement-portal/internal/guard"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/models"
	"procurement-portal/internal/session"
)

var (
	flagServer    string
	flagConfigDir string
	flagTimeout   time.Duration
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger    *slog.Logger
	client    *api.Client
	store     *session.Store
	tokens    session.TokenStore
	workflows *fileWorkflows
)

var errNotLoggedIn = errors.New("not logged in; run 'portalctl login' first")

// defaultServer returns the backend URL, checking PORTAL_BACKEND_URL first.
func defaultServer() string {
	if s := os.Getenv("PORTAL_BACKEND_URL"); s != "" {
		return s
	}
	return "http://localhost:3000"
}

func defaultConfigDir() string {
	path, err := session.DefaultCredentialsPath()
	if err != nil {
		return ".procurement"
	}
	return filepath.Dir(path)
}

// NewRootCmd creates the root command of the portalctl terminal client.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Procurement portal terminal client",
		Long:  "portalctl logs in to the procurement backend, browses RFPs and drafts, reviews and publishes new ones.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(cmd.ErrOrStderr(), flagLogLevel, flagLogFormat)
			client = api.NewClient(flagServer, api.NewHTTPClient(flagTimeout), logger)
			tokens = session.FileTokenStore{Path: filepath.Join(flagConfigDir, "credentials.json")}
			workflows = &fileWorkflows{Path: filepath.Join(flagConfigDir, "workflow.json")}

			errOut := cmd.ErrOrStderr()
			store = session.New(client, tokens,
				session.WithLogger(logger),
				session.WithNotifier(func(msg string) { color.New(color.FgYellow).Fprintln(errOut, msg) }),
			)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Backend API URL (or PORTAL_BACKEND_URL env)")
	root.PersistentFlags().StringVar(&flagConfigDir, "config-dir", defaultConfigDir(), "Directory holding credentials and the saved draft")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", api.DefaultTimeout, "Request timeout")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newCategoriesCmd(),
		newRFPCmd(),
	)

	return root
}

// requireRole restores the stored session and checks it against roles.
func requireRole(ctx context.Context, roles ...models.UserRole) (*models.User, error) {
	decision := guard.Evaluate(ctx, store, roles)
	switch decision.Action {
	case guard.RedirectLogin:
		return nil, errNotLoggedIn
	case guard.RedirectHome:
		return nil, fmt.Errorf("this command requires the %s role", roles[0])
	}
	return store.User(), nil
}

// describe turns backend failures into the user facing message.
func describe(op string, err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind == api.KindUnauthorized {
			return errNotLoggedIn
		}
		return fmt.Errorf("%s: %s", op, api.Message(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
