// Package cli implements the gtctl command tree.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gource-tools/gource-tools/internal/client"
)

const (
	// EnvPrefix is prepended to config keys when read from the environment,
	// so "api" becomes GOURCE_TOOLS_API.
	EnvPrefix = "GOURCE_TOOLS"
	// EnvAPI names the environment variable holding the API base URL.
	EnvAPI = EnvPrefix + "_API"

	keyAPI = "api"
)

type options struct {
	v          *viper.Viper
	configFile string
	apiURL     string
}

func (o *options) client() *client.Client {
	return client.New(o.apiURL)
}

// load resolves settings from flags, environment and the config file, in
// that order of precedence.
func (o *options) load() {
	path := o.configFile
	if path == "" {
		path = defaultConfigFile()
	}
	o.v.SetConfigFile(path)
	o.v.SetConfigType("yaml")
	o.v.SetEnvPrefix(EnvPrefix)
	o.v.AutomaticEnv()

	// Ignore error if config file doesn't exist.
	_ = o.v.ReadInConfig()

	o.apiURL = o.v.GetString(keyAPI)
}

// defaultConfigFile returns ~/.config/gtctl/config.yaml.
func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gtctl", "config.yaml")
}

// NewRootCmd builds the gtctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}
	opts.v.SetDefault(keyAPI, client.DefaultBaseURL)

	root := &cobra.Command{
		Use:   "gtctl",
		Short: "Manage Gource Tools projects and repositories",
		Long: `gtctl talks to a Gource Tools server. It lists projects and repositories,
links repositories to projects, and checks the configured GitHub token.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.load()
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ~/.config/gtctl/config.yaml)")
	root.PersistentFlags().String(keyAPI, client.DefaultBaseURL, "API base URL (env "+EnvAPI+")")
	_ = opts.v.BindPFlag(keyAPI, root.PersistentFlags().Lookup(keyAPI))

	root.AddCommand(
		newLinkCmd(opts, false),
		newLinkCmd(opts, true),
		newProjectsCmd(opts),
		newRepositoriesCmd(opts),
		newTokenCmd(opts),
	)
	return root
}
