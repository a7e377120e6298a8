package main

import "github.com/wolfitem/newshub/cmd"

func main() {
	cmd.Execute()
}
