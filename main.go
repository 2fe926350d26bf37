package main

import "github.com/felipemarinho97/torrent-resolver/cmd"

func main() {
	cmd.Execute()
}
