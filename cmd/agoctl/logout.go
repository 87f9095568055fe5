package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/models"
)

func logout(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("logout requires no arguments")
	}

	manager, err := getManager(c)
	if err != nil {
		return err
	}

	// The local session ends even when restoring or revoking it upstream
	// fails.
	_ = manager.Restore(c.Context)
	manager.Logout(c.Context)

	fmt.Fprintln(c.App.Writer, "Logout was successful.")
	return nil
}

func logoutAll(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("logout-all requires no arguments")
	}

	manager, err := getSession(c)
	if err != nil {
		return err
	}

	password := c.String(flagPassword)
	if password == "" {
		if password, err = promptPassword(c.App.ErrWriter, "Current password: "); err != nil {
			return err
		}
	}

	result, err := manager.LogoutAll(c.Context, models.LogoutAllInput{CurrentPassword: password})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Signed out of %d session(s).\n", result.RevokedSessions)
	return nil
}
