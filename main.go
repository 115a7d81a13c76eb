package main

import "github.com/elvatis/memdocs/cmd"

func main() {
	cmd.Execute()
}
