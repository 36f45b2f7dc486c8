package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dupescan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to the path given by --config
(dupescan.yaml unless overridden). Existing files are left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.WriteDefault(cfgFile); err != nil {
			fatal(err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s\n", green("Wrote"), cfgFile)
		fmt.Println("Edit the scan section to point at your source, then run: dupescan scan")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
