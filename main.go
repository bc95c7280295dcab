package main

import "github.com/nfclab/nfctrace/cmd"

func main() {
	cmd.Execute()
}
