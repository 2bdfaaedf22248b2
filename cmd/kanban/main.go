package main

import "os"

var version = "dev"

func main() {
	if err := execute(version); err != nil {
		os.Exit(1)
	}
}
