package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate <file-id>",
	Short: "Find which partition holds a record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			fatal(err)
		}
		defer a.Close()

		loc, err := a.mgr.Locate(context.Background(), args[0])
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s %s\n", green("Found"), args[0])
		fmt.Printf("  Container: %s %s\n", loc.ContainerName, gray(loc.ContainerHandle))
		fmt.Printf("  Partition: %s\n", loc.PartitionHandle)
		fmt.Printf("  Row:       %d\n", loc.RowIndex)
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
