package main

import "registry-console/cmd"

func main() {
	cmd.Execute()
}
