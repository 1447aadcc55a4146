package main

import "focus-planner/cmd/dailyplanner/root"

func main() {
	root.Execute()
}
