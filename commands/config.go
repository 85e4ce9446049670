package commands

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/gavelhq/gavel/config"
)

type configOpts struct {
	path string
}

var configFlags configOpts

var configPathFlag = &cli.StringFlag{
	Name:        "config",
	Usage:       "Specify path of config file to use.",
	EnvVars:     []string{"GAVEL_CONFIG"},
	Value:       "~/.gavel/config.toml",
	Destination: &configFlags.path,
}

var ConfigCmd = &cli.Command{
	Name:  "config",
	Usage: "Manage the gavel configuration file.",
	Subcommands: []*cli.Command{
		ConfigNewCmd,
		ConfigShowCmd,
	},
}

var ConfigNewCmd = &cli.Command{
	Name:  "new",
	Usage: "Write a default config file with every setting commented out.",
	Flags: []cli.Flag{
		configPathFlag,
	},
	Action: func(cctx *cli.Context) error {
		path, err := homedir.Expand(configFlags.path)
		if err != nil {
			return xerrors.Errorf("expand config location: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return xerrors.Errorf("create config directory: %w", err)
		}

		if err := config.EnsureExists(path); err != nil {
			return xerrors.Errorf("write config to %q: %w", path, err)
		}

		log.Infof("wrote config to %s", path)
		return nil
	},
}

var ConfigShowCmd = &cli.Command{
	Name:  "show",
	Usage: "Print the effective configuration: the config file merged over the defaults.",
	Flags: []cli.Flag{
		configPathFlag,
	},
	Action: func(cctx *cli.Context) error {
		path, err := homedir.Expand(configFlags.path)
		if err != nil {
			return xerrors.Errorf("expand config location: %w", err)
		}

		cfg, err := config.FromFile(path)
		if err != nil {
			return xerrors.Errorf("read config: %w", err)
		}

		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}
