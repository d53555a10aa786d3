package main

import "github.com/simonyos/geochat/cmd"

func main() {
	cmd.Execute()
}
