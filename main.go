// ABOUTME: Entry point for the bookshelf client
// ABOUTME: Terminal browser and scripting CLI for a book catalog service

package main

import (
	"fmt"
	"os"

	"github.com/markalston/bookshelf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
