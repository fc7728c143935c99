package main

import "github.com/hecrp/trainmon/cmd"

func main() {
	cmd.Execute()
}
