package main

import "github.com/urfave/cli/v2"

const (
	flagAPI         = "api"
	flagEmail       = "email"
	flagOutput      = "output"
	flagPassword    = "password"
	flagRememberMe  = "remember-me"
	flagSessionFile = "session-file"
	flagVerbose     = "verbose"
)

var cliFlagOutput = &cli.StringFlag{
	Name:    flagOutput,
	Aliases: []string{"o"},
	Usage:   "Return output in another format. Supported formats: table, json, yaml",
	Value:   "table",
}
