package cmd

import (
	"os"
	"runtime"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/felipemarinho97/torrent-resolver/consts"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version")
}

var versionTemplate = template.Must(template.New("version").Parse(`{{ .App }} {{ .Version }}

  Revision   {{ .Revision }}
  Platform   {{ .OS }}/{{ .Arch }}
  Go         {{ .Go }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := consts.GetBuildInfo()
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(info["version"])
			return nil
		}
		return versionTemplate.Execute(cmd.OutOrStdout(), map[string]string{
			"App":      info["app"],
			"Version":  info["version"],
			"Revision": info["revision"],
			"OS":       runtime.GOOS,
			"Arch":     runtime.GOARCH,
			"Go":       info["go"],
		})
	},
}
