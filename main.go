package main

import "github.com/derickschaefer/ecowise/cmd"

func main() {
	cmd.Execute()
}
