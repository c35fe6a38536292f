package main

import "github.com/openpad/openpad/cli"

func main() {
	cli.Execute()
}
