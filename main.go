package main

import "github.com/frahmantamala/fleet-backoffice/cmd"

func main() {
	cmd.Execute()
}
