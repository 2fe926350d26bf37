package consts

import "runtime"

const AppName = "torrent-resolver"

// Set with -ldflags "-X github.com/felipemarinho97/torrent-resolver/consts.gitTag=..."
var (
	gitSha = "unknown"
	gitTag = "unknown"
)

// GetBuildInfo describes the running binary.
func GetBuildInfo() map[string]string {
	return map[string]string{
		"app":      AppName,
		"revision": gitSha,
		"version":  gitTag,
		"go":       runtime.Version(),
	}
}
