package main

import "github.com/raffops/auth-management/cmd"

func main() {
	cmd.Execute()
}
