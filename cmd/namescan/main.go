package main

import "github.com/MeKo-Tech/namescan/cmd/namescan/cmd"

func main() {
	cmd.Execute()
}
