package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mythra version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mythra %s\n", version)
		},
	}
}
