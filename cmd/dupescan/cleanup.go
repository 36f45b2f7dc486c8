package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove empty partitions",
	Long: `Delete partitions that hold no data rows. The first partition of
each container is always kept so every container stays writable.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fatal(err)
		}
		defer a.Close()

		removed, err := a.mgr.Cleanup(context.Background())
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		if removed == 0 {
			fmt.Println("Nothing to clean up")
			return
		}
		fmt.Printf("%s %d empty partition(s)\n", green("Removed"), removed)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
