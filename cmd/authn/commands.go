// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"strings"

	"aahframe.work/authn/config"
	"aahframe.work/authn/console"
	"aahframe.work/authn/security/acrypto"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var configFlags = []console.Flag{
	console.StringSliceFlag{
		Name:  "config, c",
		Usage: "Configuration files (*.conf), later file values win (default: authn.conf)",
	},
	console.StringFlag{
		Name:  "envprofile, e",
		Usage: "Environment profile name to activate (e.g: dev, qa, prod)",
	},
}

func serveCmd() console.Command {
	return console.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Runs the authentication demo server",
		Description: `Runs the demo server behind the authentication filter, it serves
	the login and token pages, '/logout' and the prometheus '/metrics'.

	Examples:
	authn serve -c authn.conf
	authn serve -c authn.conf -c local.conf -e prod --watch`,
		Flags: append([]console.Flag{
			console.StringFlag{
				Name:  "address, a",
				Usage: "Listen address, overrides 'server.address'",
			},
			console.BoolFlag{
				Name:  "watch, w",
				Usage: "Reloads the authentication configuration on file change",
			},
		}, configFlags...),
		Action: func(c *console.Context) error {
			s, err := newServerFromFiles(configFilesOrDefault(c), c.String("envprofile"))
			if err != nil {
				return err
			}
			if addr := c.String("address"); len(addr) > 0 {
				s.srv.Addr = addr
			}
			return s.run(context.Background(), c.Bool("watch"))
		},
	}
}

func checkConfigCmd() console.Command {
	return console.Command{
		Name:  "check-config",
		Usage: "Validates the configuration and prints the authentication setup",
		Flags: configFlags,
		Action: func(c *console.Context) error {
			s, err := newServerFromFiles(configFilesOrDefault(c), c.String("envprofile"))
			if err != nil {
				return err
			}
			defer func() { _ = s.sessions.Close() }()

			r := s.manager.Registry()
			opts := s.manager.Options()
			console.Printf(c, "primary: %s\n", r.Primary().ID)
			console.Printf(c, "secondaries: %s\n", strings.Join(r.SecondaryIDs(), ", "))
			console.Printf(c, "restart on failure: %v\n", opts.RestartOnFailure)
			console.Printf(c, "white list: %s\n", strings.Join(opts.WhiteList, ", "))
			console.Printf(c, "session store: %s\n", s.sessions.StoreName())
			console.Printf(c, "users: %d, locations: %d\n", s.realm.Len(), s.locations.Len())
			console.Printf(c, "configuration is valid\n")
			return nil
		},
	}
}

func hashPasswordCmd() console.Command {
	return console.Command{
		Name:      "hash-password",
		Usage:     "Prints the password hash for the realm users",
		ArgsUsage: "<password>",
		Flags: append([]console.Flag{
			console.StringFlag{
				Name:  "alg, a",
				Usage: "Password encoder, bcrypt or pbkdf2",
				Value: "bcrypt",
			},
		}, configFlags...),
		Action: func(c *console.Context) error {
			password := c.Args().First()
			if len(password) == 0 {
				return errors.New("password is required")
			}

			cfg := config.NewEmpty()
			if files := configFiles(c); len(files) > 0 {
				var err error
				if cfg, err = loadConfig(files, c.String("envprofile")); err != nil {
					return err
				}
			}

			encoder, err := acrypto.CreatePasswordEncoder(cfg, c.String("alg"))
			if err != nil {
				return err
			}
			hash, err := encoder.Generate([]byte(password))
			if err != nil {
				return err
			}
			console.Printf(c, "%s\n", hash)
			return nil
		},
	}
}

func totpSecretCmd() console.Command {
	return console.Command{
		Name:  "totp-secret",
		Usage: "Generates the TOTP secret for a realm user",
		Flags: []console.Flag{
			console.StringFlag{
				Name:  "account",
				Usage: "Account name, usually the username",
			},
			console.StringFlag{
				Name:  "issuer",
				Usage: "Issuer name shown by the authenticator app",
				Value: "authn",
			},
			console.IntFlag{
				Name:  "digits",
				Usage: "Code length, 6 or 8",
				Value: 6,
			},
		},
		Action: func(c *console.Context) error {
			account := c.String("account")
			if len(account) == 0 {
				return errors.New("account is required")
			}
			digits := otp.DigitsSix
			switch c.Int("digits") {
			case 6:
			case 8:
				digits = otp.DigitsEight
			default:
				return errors.New("digits must be 6 or 8")
			}

			key, err := totp.Generate(totp.GenerateOpts{
				Issuer:      c.String("issuer"),
				AccountName: account,
				Digits:      digits,
			})
			if err != nil {
				return err
			}
			console.Printf(c, "secret: %s\n", key.Secret())
			console.Printf(c, "url: %s\n", key.URL())
			return nil
		},
	}
}

func configFiles(c *console.Context) []string {
	return c.StringSlice("config")
}

func configFilesOrDefault(c *console.Context) []string {
	if files := configFiles(c); len(files) > 0 {
		return files
	}
	return []string{defaultConfigFile}
}
