package main

import "github.com/LegacyCodeHQ/pybundle/cmd"

func main() {
	cmd.Execute()
}
