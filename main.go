package main

import "wurstmineberg/worldctl/cmd"

func main() {
	cmd.Execute()
}
