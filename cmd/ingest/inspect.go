package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents a run would pick up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		objects, err := pipeline.Documents(cmd.Context(), bucket, prefix)
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}
		if len(objects) == 0 {
			cmd.Println("No documents found.")
			return nil
		}
		for _, obj := range objects {
			cmd.Printf("%-60s %10d\n", obj.Key, obj.Size)
		}
		cmd.Printf("%d document(s)\n", len(objects))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the vector collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := pipeline.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Println("Collection reset.")
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of vectors in the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := pipeline.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		cmd.Printf("%d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, resetCmd, countCmd)
}
