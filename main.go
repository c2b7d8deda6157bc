package main

import (
	"github.com/Adoni5/readfish-tools/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
