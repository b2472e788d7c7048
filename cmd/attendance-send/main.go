package main

import "github.com/oshokin/attendance-notifier/cmd/attendance-send/cmd"

func main() {
	cmd.Execute()
}
