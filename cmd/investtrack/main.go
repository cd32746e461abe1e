// Command investtrack tracks investments kept in a spreadsheet.
package main

import "github.com/mesh-intelligence/investtrack/internal/cli"

func main() {
	cli.Execute()
}
