package main

import "postlint/cmd"

func main() {
	cmd.Execute()
}
