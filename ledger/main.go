package main

import "github.com/plenert/cnledger/ledger/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
