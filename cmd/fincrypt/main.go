package main

import (
	"errors"
	"log"
	"os"

	"github.com/ruteri/fincrypt/api/clients"
	"github.com/ruteri/fincrypt/cmd/flags"
	"github.com/ruteri/fincrypt/common"
	"github.com/urfave/cli/v2"
)

var serverFlag = &cli.StringFlag{
	Name:    "server",
	EnvVars: []string{"FINCRYPT_SERVER"},
	Usage:   "use a FinCrypt server at this URL instead of local key stores",
}

var enumerateKeysFlag = &cli.BoolFlag{
	Name:    "enumerate-keys",
	Aliases: []string{"N"},
	Usage:   "list public keys with their fingerprints and exit",
}

func main() {
	app := &cli.App{
		Name:    "fincrypt",
		Usage:   "Encrypt and sign messages for correspondents, decrypt and verify theirs",
		Version: common.Version,
		Flags:   append(append([]cli.Flag{serverFlag, enumerateKeysFlag}, flags.KeyFlags...), flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			if !cCtx.Bool(enumerateKeysFlag.Name) {
				return cli.ShowAppHelp(cCtx)
			}
			r, err := newRunner(cCtx)
			if err != nil {
				return err
			}
			return r.enumerateKeys(cCtx.Context)
		},
		Commands: []*cli.Command{
			{
				Name:      "encrypt",
				Aliases:   []string{"e"},
				Usage:     "encrypt a message for a recipient and sign it",
				ArgsUsage: "<recipient> [infile]",
				Action: func(cCtx *cli.Context) error {
					recipient, inFile, err := messageArgs(cCtx, "recipient")
					if err != nil {
						return err
					}
					r, err := newRunner(cCtx)
					if err != nil {
						return err
					}
					return r.encrypt(cCtx.Context, recipient, inFile)
				},
			},
			{
				Name:      "decrypt",
				Aliases:   []string{"d"},
				Usage:     "decrypt a message from a sender and verify its signature",
				ArgsUsage: "<sender> [infile]",
				Action: func(cCtx *cli.Context) error {
					sender, inFile, err := messageArgs(cCtx, "sender")
					if err != nil {
						return err
					}
					r, err := newRunner(cCtx)
					if err != nil {
						return err
					}
					if err := r.decrypt(cCtx.Context, sender, inFile); err != nil {
						if errors.Is(err, errNotIntact) {
							return cli.Exit("", 1)
						}
						return err
					}
					return nil
				},
			},
			{
				Name:  "keys",
				Usage: "list public keys with their fingerprints",
				Action: func(cCtx *cli.Context) error {
					r, err := newRunner(cCtx)
					if err != nil {
						return err
					}
					return r.enumerateKeys(cCtx.Context)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func messageArgs(cCtx *cli.Context, name string) (party, inFile string, err error) {
	switch cCtx.NArg() {
	case 1, 2:
		return cCtx.Args().Get(0), cCtx.Args().Get(1), nil
	default:
		return "", "", cli.Exit("expected <"+name+"> [infile]", 2)
	}
}

func newRunner(cCtx *cli.Context) (*runner, error) {
	r := &runner{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}

	if server := cCtx.String(serverFlag.Name); server != "" {
		r.m = &remoteMessenger{client: &clients.Client{ServerAddr: server}}
		return r, nil
	}

	cfg, err := flags.LoadConfig(cCtx)
	if err != nil {
		return nil, err
	}
	logger := flags.SetupLogger(cCtx, cfg)
	svc, err := flags.NewService(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	r.m = &localMessenger{svc: svc}
	return r, nil
}
