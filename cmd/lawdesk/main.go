// Command lawdesk runs the legal consultation desk as an interactive chat
// or as an MCP server over stdio.
package main

func main() {
	Execute()
}
