package main

import "github.com/vietddude/genpost/internal/cli"

func main() {
	cli.Execute()
}
