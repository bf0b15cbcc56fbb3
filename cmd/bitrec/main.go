package main

import (
	"github.com/bitrec/bitrec/cmd/bitrec/cmd"
)

func main() {
	cmd.Execute()
}
