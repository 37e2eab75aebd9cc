package main

import "github.com/MeKo-Tech/mapgrid/internal/cmd"

func main() {
	cmd.Execute()
}
