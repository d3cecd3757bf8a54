package main

import (
	"github.com/enderdzz/cn3-simulator/cmd"
)

func main() {
	cmd.Execute()
}
