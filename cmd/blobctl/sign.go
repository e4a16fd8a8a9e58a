// The 'blobctl sign' command issues presigned URLs.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var signCmdConfig struct {
	method  string
	expires time.Duration
}

var signCmd = &cobra.Command{
	Use:   "sign <bucket> <key>...",
	Short: "Issue presigned URLs for one or more objects",
	Long: `Sign computes presigned URLs locally from the client's credentials;
no request is made to the backend. All URLs in one invocation share the
same expiry instant.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		bucket, keys := args[0], args[1:]

		urls, err := client.SignURLs(context.Background(), signCmdConfig.method, bucket, keys, signCmdConfig.expires)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Println(u.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringVarP(&signCmdConfig.method, "method", "X", "GET", "HTTP method the URL authorizes")
	signCmd.Flags().DurationVarP(&signCmdConfig.expires, "expires", "e", 15*time.Minute, "how long the URL stays valid")
}
