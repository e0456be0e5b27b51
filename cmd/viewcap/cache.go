package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/viewcap/viewcap"
)

func newCacheCmd(a *app) *cobra.Command {
	var cacheDir, out string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "EXPERIMENTAL: recover the newest PDF from a browser cache directory",
		Long: `cache scans a browser cache directory for files starting with %PDF and
copies the most recently modified one. Only Firefox's cache2 directory has been
seen to work. Without -o the file is named after the current time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := viewcap.RecoverFromCache(cacheDir, out, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", green("PDF saved:"), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cacheDir, "cache-dir", "r", "", "browser cache directory")
	cmd.Flags().StringVarP(&out, "output-file", "o", "", "output PDF path")
	cmd.MarkFlagRequired("cache-dir")
	return cmd
}
