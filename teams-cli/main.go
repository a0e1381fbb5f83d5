package main

import "github.com/automate/teams-server/teams-cli/commands"

func main() {
	commands.Execute()
}
