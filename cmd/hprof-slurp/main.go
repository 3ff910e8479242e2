package main

import "github.com/agourlay/hprof-slurp/cmd/hprof-slurp/cmd"

func main() {
	cmd.Execute()
}
