package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/menu"
)

func menuShow(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("menu requires no arguments")
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	manager, err := getSession(c)
	if err != nil {
		return err
	}
	sections, err := menu.Default()
	if err != nil {
		return errors.Wrap(err, "error loading menu")
	}
	visible := menu.Filter(sections, manager.Permissions())

	if done, err := printStructured(c.App.Writer, output, visible); done {
		return err
	}

	if len(visible) == 0 {
		fmt.Fprintln(c.App.Writer, "No menu entries are available to this account.")
		return nil
	}
	for _, section := range visible {
		fmt.Fprintln(c.App.Writer, section.Label)
		printItems(c.App.Writer, section.Items, 1)
	}
	return nil
}

func printItems(w io.Writer, items []menu.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		if item.Path != "" {
			fmt.Fprintf(w, "%s%s  %s\n", indent, item.Name, item.Path)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, item.Name)
		}
		printItems(w, item.Children, depth+1)
	}
}
