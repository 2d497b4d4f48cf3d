// Command airgate serves a JSON REST API over a SOAP airline reservation backend.
package main

import "github.com/skyroute/airgate/cmd/airgate/cmd"

func main() {
	cmd.Execute()
}
