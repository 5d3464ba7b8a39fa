package main

import "github.com/sudssf/jvm-hprof-go/cmd"

func main() {
	cmd.Execute()
}
