// The 'blobctl rm' command deletes one or more objects.
package main

import (
	"context"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <bucket> <key>...",
	Short: "Delete one or more objects",
	Long: `Rm deletes the named objects. Multiple keys are deleted in batches;
per-key failures are reported but do not stop the rest of the batch.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		bucket, keys := args[0], args[1:]
		ctx := context.Background()

		if len(keys) == 1 {
			if err := client.Delete(ctx, bucket, keys[0]); err != nil {
				return err
			}
			log.Infof("deleted %s", keys[0])
			return nil
		}

		result, err := client.DeleteMany(ctx, bucket, keys)
		if err != nil {
			return err
		}
		log.Infof("deleted %d objects in %s", len(result.Deleted), result.Duration)
		for _, derr := range result.Errors {
			log.Warnf("failed to delete %s: %s (%s)", derr.Key, derr.Message, derr.Code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
