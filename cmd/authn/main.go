// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Command authn runs the multi-factor authentication demo server and
// provides configuration and credential tooling.
//
//	authn serve -c authn.conf --watch
//	authn check-config -c authn.conf
//	authn hash-password -a bcrypt welcome123
//	authn totp-secret --account admin
package main

import (
	"io"
	"os"

	"aahframe.work/authn/console"
	"aahframe.work/authn/log"
)

// Version no. of the authn tool, it is set at build time.
var Version = "0.1-dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(w io.Writer) *console.Application {
	return console.NewApp("authn", Version, w,
		serveCmd(),
		checkConfigCmd(),
		hashPasswordCmd(),
		totpSecretCmd(),
	)
}
