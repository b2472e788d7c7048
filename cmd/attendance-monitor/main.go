package main

import "github.com/oshokin/attendance-notifier/cmd/attendance-monitor/cmd"

func main() {
	cmd.Execute()
}
