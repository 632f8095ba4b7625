package main

import "github.com/forgeai-dev/ForgeAI/internal/cli"

func main() {
	cli.Execute()
}
