package main

import "docpilot/cmd"

func main() {
	cmd.Execute()
}
