package main

import "github.com/aouyang1/go-conformal/cmd/conformal/cmd"

func main() {
	cmd.Execute()
}
