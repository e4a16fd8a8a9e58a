// The 'blobctl ls' command lists objects under a prefix.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmdConfig struct {
	recursive bool
	delimiter string
}

var lsCmd = &cobra.Command{
	Use:   "ls <bucket> [prefix]",
	Short: "List objects under a prefix",
	Long: `Ls lists one hierarchy level by default, showing objects directly
under the prefix and the common prefixes below it. With --recursive every
object under the prefix is streamed, paginating transparently.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		bucket := args[0]
		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}
		ctx := context.Background()

		if lsCmdConfig.recursive {
			for result := range client.ListAll(ctx, bucket, prefix) {
				if result.Err != nil {
					return result.Err
				}
				fmt.Printf("%12d  %s\n", result.Object.Size, result.Object.Key)
			}
			return nil
		}

		result, err := client.ListWithDelimiter(ctx, bucket, prefix, lsCmdConfig.delimiter)
		if err != nil {
			return err
		}
		for _, p := range result.CommonPrefixes {
			fmt.Printf("%12s  %s\n", "PRE", p)
		}
		for _, obj := range result.Objects {
			fmt.Printf("%12d  %s\n", obj.Size, obj.Key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVarP(&lsCmdConfig.recursive, "recursive", "R", false, "list every object under the prefix")
	lsCmd.Flags().StringVar(&lsCmdConfig.delimiter, "delimiter", "/", "hierarchy delimiter for non-recursive listings")
}
