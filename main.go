package main

import (
	"github.com/queuesim/queuesim/cmd"
)

func main() {
	cmd.Execute()
}
