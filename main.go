// Command renderfeed fetches script-rendered RSS/Atom feeds through a pool
// of headless browsers and prints them in normalized form.
package main

import "github.com/avasile/renderfeed/cmd"

func main() {
	cmd.Execute()
}
