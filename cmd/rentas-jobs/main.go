package main

import "github.com/tu-usuario/rentas-pro/internal/interfaces/cli"

func main() {
	cli.Execute()
}
