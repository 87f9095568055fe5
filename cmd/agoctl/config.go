package main

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/tokenstore"
)

const (
	settingsFileName = "agoctl.json"
	keyAPIAddress    = "api_address"
)

// settingsTier holds what the CLI remembers apart from the session, so that
// logging out keeps the API address.
func settingsTier(c *cli.Context) (*tokenstore.FileTier, error) {
	sessionFile, err := sessionFilePath(c)
	if err != nil {
		return nil, err
	}
	return tokenstore.NewFileTier(filepath.Join(filepath.Dir(sessionFile), settingsFileName)), nil
}

func sessionFilePath(c *cli.Context) (string, error) {
	if path := c.String(flagSessionFile); path != "" {
		return path, nil
	}
	path, err := tokenstore.DefaultFilePath()
	if err != nil {
		return "", errors.Wrap(err, "error locating session file")
	}
	return path, nil
}

// apiAddress prefers the --api flag over the address saved by the last login.
func apiAddress(c *cli.Context) (string, error) {
	if addr := strings.TrimRight(c.String(flagAPI), "/"); addr != "" {
		return addr, nil
	}
	settings, err := settingsTier(c)
	if err != nil {
		return "", err
	}
	addr, ok, err := settings.Get(c.Context, keyAPIAddress)
	if err != nil {
		return "", errors.Wrap(err, "error reading agoctl settings")
	}
	if !ok || addr == "" {
		return "", errors.New("no API address configured; pass --api or set AGOCTL_API")
	}
	return addr, nil
}

func saveAPIAddress(c *cli.Context, addr string) error {
	settings, err := settingsTier(c)
	if err != nil {
		return err
	}
	return errors.Wrap(settings.Set(c.Context, keyAPIAddress, addr), "error saving agoctl settings")
}
