package main

import "github.com/xetiic/busdesk/cmd/busdesk/cmd"

func main() {
	cmd.Execute()
}
