package main

import "github.com/iksnae/agentroom/cmd"

func main() {
	cmd.Execute()
}
