package main

import (
	"os"

	"listmgmt/cmd/listsvc/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
