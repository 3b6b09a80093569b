package main

import "github.com/KaramelBytes/winevalue-cli/cmd"

func main() {
	cmd.Execute()
}
