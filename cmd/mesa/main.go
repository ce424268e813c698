// Command mesa runs the dining philosophers and bounded buffer simulations.
package main

import "github.com/berth-dev/mesa/internal/cli"

func main() {
	cli.Execute()
}
