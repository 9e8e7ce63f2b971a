// Package main is the flatcrawler executable. It defers all execution to the Cobra CLI.
package main

import "github.com/JakeFAU/flat-crawler/cmd"

func main() {
	cmd.Execute()
}
