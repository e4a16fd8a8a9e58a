// The 'blobctl mpu' command group manages multipart upload sessions.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blobworks/blobstore/blobtypes"
)

var mpuCmd = &cobra.Command{
	Use:   "mpu",
	Short: "Manage multipart upload sessions",
}

var mpuCreateCmd = &cobra.Command{
	Use:   "create <bucket> <key>",
	Short: "Start a multipart upload session and print its ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		id, err := client.CreateMultipart(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		cmd.Println(id)
		return nil
	},
}

var mpuAbortCmd = &cobra.Command{
	Use:   "abort <bucket> <key> <upload-id>",
	Short: "Abort a multipart upload session and release its parts",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		id := blobtypes.MultipartID(args[2])
		if err := client.AbortMultipart(context.Background(), args[0], args[1], id); err != nil {
			return err
		}
		log.Infof("aborted multipart upload %s for %s/%s", args[2], args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mpuCmd)
	mpuCmd.AddCommand(mpuCreateCmd)
	mpuCmd.AddCommand(mpuAbortCmd)
}
