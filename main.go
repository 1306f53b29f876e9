package main

import (
	"github.com/yassi/dj-redis-panel/cmd"
)

func main() {
	cmd.Execute()
}
