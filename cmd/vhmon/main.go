package main

import "vehicle-health-monitor/internal/cli"

func main() {
	cli.Execute()
}
