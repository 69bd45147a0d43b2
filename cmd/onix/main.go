package main

import "github.com/OpenTraceLab/OpenTraceONIX/cmd/onix/cmd"

func main() {
	cmd.Execute()
}
