package main

import "github.com/naka-gawa/gh-contributions/cmd"

func main() {
	cmd.Execute()
}
