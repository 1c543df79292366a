// Command erpctl talks to a tenant of the ERP backend from the shell: it
// logs in, keeps the token pair in a credentials file and issues
// authenticated requests that refresh the access token when it expires.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
