// The 'blobctl cp' command copies an object server-side.
package main

import (
	"context"

	"github.com/spf13/cobra"
)

var cpCmdConfig struct {
	ifNotExists bool
	move        bool
}

var cpCmd = &cobra.Command{
	Use:   "cp <src-bucket> <src-key> <dst-bucket> <dst-key>",
	Short: "Copy an object server-side",
	Long: `Cp copies an object between keys or buckets without moving the data
through the client. With --if-not-exists the copy is conditional and fails
if the destination already exists; with --move the source is deleted after
a successful copy.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		srcBucket, srcKey, dstBucket, dstKey := args[0], args[1], args[2], args[3]
		ctx := context.Background()

		switch {
		case cpCmdConfig.move:
			err = client.Move(ctx, srcBucket, srcKey, dstBucket, dstKey)
		case cpCmdConfig.ifNotExists:
			err = client.CopyIfNotExists(ctx, srcBucket, srcKey, dstBucket, dstKey)
		default:
			err = client.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
		}
		if err != nil {
			return err
		}

		log.Infof("copied %s/%s to %s/%s", srcBucket, srcKey, dstBucket, dstKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)

	cpCmd.Flags().BoolVar(&cpCmdConfig.ifNotExists, "if-not-exists", false, "fail if the destination already exists")
	cpCmd.Flags().BoolVar(&cpCmdConfig.move, "move", false, "delete the source after a successful copy")
}
