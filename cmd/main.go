package main

import "github.com/JhonesBR/go-ledger/cmd/commands"

func main() {
	commands.Execute()
}
