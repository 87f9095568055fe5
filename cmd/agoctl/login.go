package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/models"
)

func login(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("login requires no arguments")
	}

	addr, err := apiAddress(c)
	if err != nil {
		return err
	}

	email := c.String(flagEmail)
	if email == "" {
		if email, err = promptLine(c.App.ErrWriter, os.Stdin, "Email: "); err != nil {
			return err
		}
	}
	password := c.String(flagPassword)
	if password == "" {
		if password, err = promptPassword(c.App.ErrWriter, "Password: "); err != nil {
			return err
		}
	}

	manager, err := getManager(c)
	if err != nil {
		return err
	}
	snap, err := manager.Login(c.Context, models.LoginInput{
		Email:      email,
		Password:   password,
		RememberMe: c.Bool(flagRememberMe),
	})
	if err != nil {
		return err
	}

	if err := saveAPIAddress(c, addr); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Signed in as %s (%s).\n", snap.Identity.Email, snap.Identity.Role)
	if !snap.RememberMe {
		fmt.Fprintln(c.App.ErrWriter, "Not remembered: the session ends with this command.")
	}
	return nil
}
