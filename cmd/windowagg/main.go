package main

import "github.com/paveg/windowagg/cmd/windowagg/commands"

func main() {
	commands.Execute()
}
