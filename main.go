package main

import "github.com/chpines/hotspot-tickets/cmd"

func main() {
	cmd.Execute()
}
