// The 'blobctl get' command downloads an object to a file or stdout.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blobworks/blobstore"
	"github.com/blobworks/blobstore/blobtypes"
)

var getCmdConfig struct {
	byteRange string
}

var getCmd = &cobra.Command{
	Use:   "get <bucket> <key> [file]",
	Short: "Download an object to a file or stdout",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		bucket, key := args[0], args[1]
		ctx := context.Background()

		var downloadOpts []blobtypes.DownloadOption
		if getCmdConfig.byteRange != "" {
			downloadOpts = append(downloadOpts, blobstore.WithRange(getCmdConfig.byteRange))
		}

		if len(args) == 3 {
			result, err := client.DownloadFile(ctx, bucket, key, args[2], downloadOpts...)
			if err != nil {
				return err
			}
			log.Infof("downloaded %s (%d bytes) in %s", key, result.Size, result.Duration)
			return nil
		}

		_, err = client.Download(ctx, bucket, key, os.Stdout, downloadOpts...)
		return err
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getCmdConfig.byteRange, "range", "", "byte range to fetch, e.g. bytes=0-1023")
}
