package main

import "github.com/fmosquera77/Numeros-Quiniela/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
