// Command blobctl is a thin command-line front end for the blobstore client.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobworks/blobstore"
	"github.com/blobworks/blobstore/blobtypes"
)

var (
	cfgFile string
	verbose bool

	cfg *viper.Viper
	log = logrus.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blobctl",
	Short: "Manage objects in S3-compatible storage",
	Long: `blobctl uploads, downloads, lists, copies, deletes, and presigns
objects in any S3-compatible store. Connection settings come from flags,
a config file, or the standard AWS environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		return initConfig(cmd)
	},
}

func initConfig(cmd *cobra.Command) error {
	cfg = viper.New()

	cfg.SetDefault("region", "")
	cfg.SetDefault("endpoint", "")
	cfg.SetDefault("concurrency", 5)
	cfg.SetDefault("min-part-size", 8*1024*1024)
	cfg.SetDefault("path-style", false)
	cfg.BindEnv("region", "AWS_DEFAULT_REGION")

	if cfgFile != "" {
		cfg.SetConfigFile(cfgFile)
		if err := cfg.ReadInConfig(); err != nil {
			return err
		}
	} else {
		cfg.SetConfigName("blobctl")
		cfg.AddConfigPath("$HOME/.config")
		cfg.AddConfigPath(".")
		// A missing default config file is fine; flags and env still apply.
		if err := cfg.ReadInConfig(); err == nil {
			log.Debugf("loaded config from %s", cfg.ConfigFileUsed())
		}
	}

	// Flags set on the command line take precedence over the file.
	if err := cfg.BindPFlag("region", cmd.Flags().Lookup("region")); err != nil {
		return err
	}
	return cfg.BindPFlag("endpoint", cmd.Flags().Lookup("endpoint"))
}

// newClient builds a blobstore client from the resolved configuration.
func newClient() (*blobstore.Client, error) {
	var clientOpts []blobtypes.Option
	if region := cfg.GetString("region"); region != "" {
		clientOpts = append(clientOpts, blobstore.WithRegion(region))
	}
	if endpoint := cfg.GetString("endpoint"); endpoint != "" {
		clientOpts = append(clientOpts, blobstore.WithEndpoint(endpoint))
	}
	if cfg.GetBool("path-style") {
		clientOpts = append(clientOpts, blobstore.WithForcePathStyle(true))
	}
	clientOpts = append(clientOpts,
		blobstore.WithConcurrency(cfg.GetInt("concurrency")),
		blobstore.WithMinPartSize(cfg.GetInt("min-part-size")),
	)

	return blobstore.New(clientOpts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/blobctl.yaml)")
	rootCmd.PersistentFlags().StringP("region", "r", "", "storage region")
	rootCmd.PersistentFlags().String("endpoint", "", "custom endpoint URL for S3-compatible stores")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
