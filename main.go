package main

import "github.com/alde/pagefit/cmd"

func main() {
	cmd.Execute()
}
