package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.od2.network/bearergw/cmd/check"
	"go.od2.network/bearergw/cmd/providers"
	"go.od2.network/bearergw/cmd/serve"
	"go.uber.org/zap"
)

var rootCmd = cobra.Command{
	Use:   "bearergw",
	Short: "OAuth2 bearer token gateway",

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var logConfig zap.Config
		if devMode {
			logConfig = zap.NewDevelopmentConfig()
		} else {
			logConfig = zap.NewProductionConfig()
		}
		log, err := logConfig.Build()
		if err != nil {
			panic("failed to build logger: " + err.Error())
		}
		providers.Log = log
		if err := readConfig(); err != nil {
			log.Fatal("Failed to read config", zap.Error(err))
		}
	},
}

var devMode bool
var configPath string

func init() {
	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.BoolVar(&devMode, "dev", false, "Dev mode")
	persistentFlags.StringVar(&configPath, "config", "", "Config file path")

	rootCmd.AddCommand(
		&serve.Cmd,
		&check.Cmd,
	)
}

func readConfig() error {
	viper.SetEnvPrefix("BEARERGW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if configPath == "" {
		return nil
	}
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	providers.Log.Info("Read config", zap.String("config", viper.ConfigFileUsed()))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
