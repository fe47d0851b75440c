package main

import "intercom-cli/cmd"

func main() {
	cmd.Execute()
}
