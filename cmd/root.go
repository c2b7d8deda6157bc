// Package cmd is for command line interactions with the readfish-tools application
package cmd

import (
	"log"
	"os"

	"github.com/Adoni5/readfish-tools/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// stderr is for logging to Stderr (without an annoying timestamp)
var stderr = log.New(os.Stderr, "", 0)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "readfish-tools",
	Short: `Summarise the alignments of a readfish adaptive sampling experiment.
Reads are attributed to their region or barcode and counted on or off target`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stderr.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(readSettings)
	config.SetDefaults(viper.GetViper())

	// settings is an optional settings file whose fields are overridden by flags
	rootCmd.PersistentFlags().StringP("settings", "s", "", "settings file <YAML|TOML|JSON>")
	viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings"))
}

// readSettings reads the settings file, if one was given.
func readSettings() {
	path := viper.GetString("settings")
	if path == "" {
		return
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		stderr.Fatalf("failed to read settings file %s: %v", path, err)
	}
}

// bindFlags binds the named flags of a command to viper settings of the same name.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}
