package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/service"
	"github.com/noah-isme/ag-office-console/internal/tokenstore"
	appErrors "github.com/noah-isme/ag-office-console/pkg/errors"
	"github.com/noah-isme/ag-office-console/pkg/logger"
)

var errNotSignedIn = errors.New("not signed in; please use `agoctl login` to continue")

const upstreamTimeout = 30 * time.Second

var supportedLocales = []string{"fr", "en"}

// getManager builds a session manager over the session file. The transient
// tier lives only as long as the command.
func getManager(c *cli.Context) (*service.SessionManager, error) {
	addr, err := apiAddress(c)
	if err != nil {
		return nil, err
	}
	sessionFile, err := sessionFilePath(c)
	if err != nil {
		return nil, err
	}

	logr := logger.NewCLI(c.Bool(flagVerbose))
	store := tokenstore.New(
		tokenstore.NewFileTier(sessionFile),
		tokenstore.NewMemoryTier(),
		tokenstore.WithLogger(logr),
	)
	client := apiclient.New(apiclient.Config{
		BaseURL:   addr,
		Timeout:   upstreamTimeout,
		UserAgent: c.App.Name,
	}, store, logr)

	return service.NewSessionManager(
		client,
		store,
		service.NewLocaleService(supportedLocales),
		nil,
		nil,
		logr,
		service.SessionManagerConfig{LoadConfiguration: true},
	), nil
}

// getSession restores the stored session and fails when there is none.
func getSession(c *cli.Context) (*service.SessionManager, error) {
	manager, err := getManager(c)
	if err != nil {
		return nil, err
	}
	if err := manager.Restore(c.Context); err != nil {
		if appErrors.IsSessionLoss(err) {
			return nil, errNotSignedIn
		}
		return nil, errors.Wrap(err, "error restoring session")
	}
	if !manager.IsAuthenticated() {
		return nil, errNotSignedIn
	}
	return manager, nil
}
