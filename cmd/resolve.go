package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("type", "t", "", "Content type of the id: movie or series (inferred when empty)")
	resolveCmd.Flags().IntP("file", "f", -1, "Index of the file to stream inside the torrent")
}

var resolveCmd = &cobra.Command{
	Use:     "resolve <provider> <hash> <id>",
	Short:   "Drive a debrid job and print the stream URL",
	Example: "  torrent-resolver resolve realdebrid 0123456789abcdef0123456789abcdef01234567 tt0068646",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := schema.ParseMediaID(lo.Must(cmd.Flags().GetString("type")), args[2])
		if err != nil {
			return err
		}
		fileIndex := mo.None[int]()
		if idx := lo.Must(cmd.Flags().GetInt("file")); idx >= 0 {
			fileIndex = mo.Some(idx)
		}

		a, err := newApp(cmd.Context(), loadConfig(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.service.Resolve(cmd.Context(), args[0], args[1], id, fileIndex)
		if err != nil {
			return err
		}
		switch out.Kind {
		case debrid.OutcomeResolved:
			fmt.Fprintln(cmd.OutOrStdout(), out.URL)
		case debrid.OutcomePending:
			fmt.Fprintf(cmd.OutOrStdout(), "pending: job %s is %s, try again later\n", out.JobID, out.State)
		default:
			return fmt.Errorf("resolution failed (%s): %w", out.Failure(), out.Err)
		}
		return nil
	},
}
