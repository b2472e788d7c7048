package main

import "github.com/oshokin/attendance-notifier/cmd/attendance-server/cmd"

func main() {
	cmd.Execute()
}
