package main

import "github.com/vietddude/subgraph-monitor/internal/cli"

func main() {
	cli.Execute()
}
