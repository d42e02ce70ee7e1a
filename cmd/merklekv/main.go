package main

import (
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/cli"
)

func main() {
	// commands that open an app replace this with the configured level
	logger.New("NOOP")
	cli.ExecuteRoot(cli.NewMerkleKVCommand())
}
