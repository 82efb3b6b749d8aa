package main

import "github.com/oshokin/reader-bundler/cmd/reader-bundler/cmd"

func main() {
	cmd.Execute()
}
