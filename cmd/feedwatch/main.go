package main

import "github.com/vietddude/feedwatch/internal/cli"

func main() {
	cli.Execute()
}
