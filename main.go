package main

import "github.com/praveen001/planner/cmd"

func main() {
	cmd.Execute()
}
