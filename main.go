/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/marigold-app/accounts-api/cmd"

func main() {
	cmd.Execute()
}
