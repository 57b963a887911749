package main

import "github.com/testuser-console/cmd/console/cmd"

func main() {
	cmd.Execute()
}
