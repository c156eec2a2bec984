package main

import "github.com/naka-gawa/github-devstats/cmd"

func main() {
	cmd.Execute()
}
