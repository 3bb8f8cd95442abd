package main

import "etr/cmd"

func main() {
	cmd.Execute()
}
