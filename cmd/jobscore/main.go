package main

import "github.com/justsurfingit/job-success-tracker/internal/cli"

func main() {
	cli.Execute()
}
