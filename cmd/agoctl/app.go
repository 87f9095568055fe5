package main

import (
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/ag-office-console/internal/tokenstore"
)

func newApp() *cli.App {
	sessionFile, err := tokenstore.DefaultFilePath()
	if err != nil {
		sessionFile = ""
	}

	app := cli.NewApp()
	app.Name = "agoctl"
	app.Usage = "Sign in to the AG Office API from a terminal"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagAPI,
			Usage:   "Base URL of the AG Office API (remembered after login)",
			EnvVars: []string{"AGOCTL_API"},
		},
		&cli.StringFlag{
			Name:    flagSessionFile,
			Usage:   "Where the session is kept between commands",
			Value:   sessionFile,
			EnvVars: []string{"AGOCTL_SESSION_FILE"},
		},
		&cli.BoolFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "Log upstream calls to stderr",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:  "login",
			Usage: "Sign in",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagEmail,
					Aliases: []string{"e"},
					Usage:   "Account email (prompted when omitted)",
				},
				&cli.StringFlag{
					Name:    flagPassword,
					Aliases: []string{"p"},
					Usage:   "Account password (prompted without echo when omitted)",
				},
				&cli.BoolFlag{
					Name: flagRememberMe,
					Usage: "Keep a refresh token so the session outlives the access " +
						"token; without it the session ends when this command exits",
					Value: true,
				},
			},
			Action: login,
		},
		{
			Name:   "logout",
			Usage:  "Sign out of this terminal",
			Action: logout,
		},
		{
			Name:  "logout-all",
			Usage: "Sign out of every device",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagPassword,
					Aliases: []string{"p"},
					Usage:   "Current password (prompted without echo when omitted)",
				},
			},
			Action: logoutAll,
		},
		{
			Name:   "whoami",
			Usage:  "Show the signed-in account, its permissions and locale",
			Flags:  []cli.Flag{cliFlagOutput},
			Action: whoami,
		},
		{
			Name:  "sessions",
			Usage: "Manage the account's sessions",
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "List sessions, this one first",
					Flags:  []cli.Flag{cliFlagOutput},
					Action: sessionsList,
				},
				{
					Name:      "revoke",
					Usage:     "Revoke another device's session",
					ArgsUsage: "SESSION_ID",
					Action:    sessionsRevoke,
				},
			},
		},
		{
			Name:   "menu",
			Usage:  "Show the console navigation visible to the signed-in account",
			Flags:  []cli.Flag{cliFlagOutput},
			Action: menuShow,
		},
	}
	return app
}
