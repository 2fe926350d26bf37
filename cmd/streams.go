package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

func init() {
	rootCmd.AddCommand(streamsCmd)
	streamsCmd.Flags().StringP("type", "t", "", "Content type of the id: movie or series (inferred when empty)")
	streamsCmd.Flags().IntP("limit", "n", 0, "Print at most n streams")
}

var streamsCmd = &cobra.Command{
	Use:     "streams <id>",
	Short:   "Print the ranked streams of a movie or episode as JSON",
	Example: "  torrent-resolver streams tt0903747:5:14\n  torrent-resolver streams kitsu:12:163",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentType := lo.Must(cmd.Flags().GetString("type"))
		id, err := schema.ParseMediaID(contentType, args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), loadConfig(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		streams, err := a.service.Streams(cmd.Context(), id)
		if err != nil {
			return err
		}
		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && len(streams) > limit {
			streams = streams[:limit]
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(streams); err != nil {
			return fmt.Errorf("failed to encode streams: %w", err)
		}
		return nil
	},
}
