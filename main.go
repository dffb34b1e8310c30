package main

import "github.com/qobs-build/acebuild/cmd"

func main() {
	cmd.Execute()
}
