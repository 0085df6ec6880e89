package main

import "churnapi/cmd"

func main() {
	cmd.Execute()
}
