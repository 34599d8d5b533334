package main

import "imggen/cmd"

func main() {
	cmd.Execute()
}
