package main

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func whoami(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("whoami requires no arguments")
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	manager, err := getSession(c)
	if err != nil {
		return err
	}
	snap := manager.Snapshot()

	if done, err := printStructured(c.App.Writer, output, snap); done {
		return err
	}

	table := uitable.New()
	table.Wrap = true
	table.AddRow("EMAIL:", snap.Identity.Email)
	table.AddRow("NAME:", snap.Identity.DisplayName)
	table.AddRow("ROLE:", snap.Identity.Role)
	table.AddRow("LOCALE:", snap.Locale)
	table.AddRow("REMEMBERED:", snap.RememberMe)
	table.AddRow("PERMISSIONS:", strings.Join(snap.Permissions.Codes(), ", "))
	fmt.Fprintln(c.App.Writer, table)
	return nil
}
