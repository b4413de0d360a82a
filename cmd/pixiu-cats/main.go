package main

import (
	"fmt"
	"os"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/cmd"
)

var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pixiu-cats:", err)
		os.Exit(1)
	}
}
