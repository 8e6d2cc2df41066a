// Command forgevault is the command-line front end for the forgevault
// object store.
package main

import "github.com/forgevault/forgevault/cli"

func main() {
	cli.Execute()
}
