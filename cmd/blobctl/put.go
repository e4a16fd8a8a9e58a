// The 'blobctl put' command uploads a local file or stdin to a bucket.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blobworks/blobstore"
	"github.com/blobworks/blobstore/blobtypes"
)

var putCmdConfig struct {
	contentType string
	partSize    int
}

var putCmd = &cobra.Command{
	Use:   "put <bucket> <key> [file]",
	Short: "Upload a file or stdin to a bucket",
	Long: `Put uploads a local file to the given bucket and key. When no file
argument is given the object body is read from stdin and streamed as a
multipart upload, so the total size never needs to be known up front.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		bucket, key := args[0], args[1]
		ctx := context.Background()

		var uploadOpts []blobtypes.UploadOption
		if putCmdConfig.contentType != "" {
			uploadOpts = append(uploadOpts, blobstore.WithContentType(putCmdConfig.contentType))
		}
		if putCmdConfig.partSize > 0 {
			uploadOpts = append(uploadOpts, blobstore.WithUploadPartSize(putCmdConfig.partSize))
		}

		if len(args) == 3 {
			result, err := client.UploadFile(ctx, bucket, key, args[2], uploadOpts...)
			if err != nil {
				return err
			}
			log.Infof("uploaded %s (%d bytes) in %s", key, result.Size, result.Duration)
			return nil
		}

		result, err := client.Upload(ctx, bucket, key, os.Stdin, uploadOpts...)
		if err != nil {
			return err
		}
		log.Infof("uploaded %s (%d bytes) in %s", key, result.Size, result.Duration)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().StringVarP(&putCmdConfig.contentType, "content-type", "t", "", "content type of the object (detected when unset)")
	putCmd.Flags().IntVar(&putCmdConfig.partSize, "part-size", 0, "minimum multipart part size in bytes")
}
