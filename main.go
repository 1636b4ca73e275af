package main

import "dance-rollcall/cmd"

func main() {
	cmd.Execute()
}
