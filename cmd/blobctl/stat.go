// The 'blobctl stat' command prints object metadata.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat <bucket> <key>",
	Short: "Print object metadata",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		meta, err := client.GetMetadata(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Key:           %s\n", args[1])
		fmt.Printf("Size:          %d\n", meta.ContentLength)
		fmt.Printf("Content-Type:  %s\n", meta.ContentType)
		fmt.Printf("ETag:          %s\n", meta.ETag)
		fmt.Printf("Last-Modified: %s\n", meta.LastModified)
		for k, v := range meta.Metadata {
			fmt.Printf("Meta[%s]: %s\n", k, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
