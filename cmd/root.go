package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sankooc/shark-go/cmd/internal/analyze"
	"github.com/sankooc/shark-go/config"
	"github.com/sankooc/shark-go/printer"
)

var (
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "shark",
	Short:         "Offline packet capture analyzer.",
	Long:          "shark parses pcap and pcap-ng captures and answers queries over the decoded frames, flows, and application-layer records.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		cmd.Println(cmd.UsageString())
		printer.Stderr.Errorf("%s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "If set, outputs detailed information for debugging.")
	rootCmd.PersistentFlags().MarkHidden("debug")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(config.Dir())
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			printer.Stderr.Warningf("failed to read config: %v\n", err)
		}
	}

	rootCmd.AddCommand(analyze.Cmd)
}
