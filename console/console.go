// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package console provides the CLI building blocks of the authn tool.
package console

import (
	"fmt"
	"io"

	"github.com/urfave/cli"
)

// NOTE: console package type aliases declared using library `github.com/urfave/cli`.
// Commands depend on these aliases only, the library stays replaceable.

type (
	// Application is the main structure of a console application.
	Application = cli.App

	// Command is a named command of the application.
	Command = cli.Command

	// Context is passed to each command action, it gives access to the
	// parsed arguments and flags.
	Context = cli.Context

	// Flag is a common interface related to parsing flags in console.
	Flag = cli.Flag

	// StringFlag is a flag with type string
	StringFlag = cli.StringFlag

	// StringSliceFlag is a flag with type []string
	StringSliceFlag = cli.StringSliceFlag

	// StringSlice is an opaque type for []string to satisfy flag.Value and flag.
	StringSlice = cli.StringSlice

	// BoolFlag is a flag with type bool
	BoolFlag = cli.BoolFlag

	// IntFlag is a flag with type int
	IntFlag = cli.IntFlag
)

// NewApp creates a new console Application with given name, version and
// commands. Output goes to w.
func NewApp(name, version string, w io.Writer, cmds ...Command) *Application {
	a := cli.NewApp()
	a.Name = name
	a.HelpName = name
	a.Version = version
	a.Usage = "Multi-factor authentication filter and tooling"
	a.Writer = w
	a.ErrWriter = w
	a.Commands = cmds
	return a
}

// ShowCommandHelp prints help for the given command
func ShowCommandHelp(c *Context, cmd string) error {
	return cli.ShowCommandHelp(c, cmd)
}

// Printf method writes the formatted text to the application writer.
func Printf(c *Context, format string, v ...interface{}) {
	_, _ = fmt.Fprintf(c.App.Writer, format, v...)
}

func init() {
	cli.AppHelpTemplate = `Name:
	{{.Name}}{{if .Usage}} - {{.Usage}}{{end}}

Usage:
	{{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .Version}}{{if not .HideVersion}}

Version:
	{{.Version}}{{end}}{{end}}{{if .VisibleCommands}}

Commands:{{range .VisibleCategories}}{{if .Name}}
	{{.Name}}:{{end}}{{range .VisibleCommands}}
	{{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Options:
	{{range $index, $option := .VisibleFlags}}{{if $index}}
	{{end}}{{$option}}{{end}}{{end}}
`

	cli.CommandHelpTemplate = `Name:
	{{.HelpName}} - {{.Usage}}

Usage:
	{{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}}{{if .VisibleFlags}} [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .Description}}

Description:
	{{.Description}}{{end}}{{if .VisibleFlags}}

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}{{end}}
`
}
