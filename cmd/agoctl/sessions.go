package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/dto"
)

func sessionsList(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("sessions list requires no arguments")
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	manager, err := getSession(c)
	if err != nil {
		return err
	}
	list, err := manager.Sessions(c.Context)
	if err != nil {
		return err
	}

	if done, err := printStructured(c.App.Writer, output, list); done {
		return err
	}

	table := uitable.New()
	table.AddRow("ID", "DEVICE", "KIND", "IP", "LAST ACTIVE", "CURRENT?")
	for _, s := range list.Sessions {
		table.AddRow(s.ID, s.DeviceInfo, s.DeviceKind, s.IPAddress, lastActive(s), s.IsCurrent)
	}
	fmt.Fprintln(c.App.Writer, table)
	return nil
}

func lastActive(s dto.SessionView) string {
	if s.LastUsedAt != nil {
		return humanize.Time(*s.LastUsedAt)
	}
	return humanize.Time(s.CreatedAt)
}

func sessionsRevoke(c *cli.Context) error {
	// Args
	if c.Args().Len() != 1 {
		return errors.New("sessions revoke requires one argument: a session ID")
	}
	id := c.Args().First()

	manager, err := getSession(c)
	if err != nil {
		return err
	}
	if err := manager.RevokeSession(c.Context, id); err != nil {
		return errors.Wrapf(err, "error revoking session %q", id)
	}

	fmt.Fprintf(c.App.Writer, "Session %q revoked.\n", id)
	return nil
}
