// Command snscan extracts device serial numbers from label photos.
package main

import "github.com/MeKo-Tech/snscan/cmd/snscan/cmd"

func main() {
	cmd.Execute()
}
