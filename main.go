package main

import "github.com/tanq16/vodkit/cmd"

func main() {
	cmd.Execute()
}
