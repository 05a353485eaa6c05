package main

import "github.com/KaramelBytes/profilestat-cli/cmd"

func main() {
	cmd.Execute()
}
