package main

import "github.com/anshul-jain-devx108/shopmind/cmd"

func main() {
	cmd.Execute()
}
