/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/DamirAkzhigitov/offer-parser/cmd"

func main() {
	cmd.Execute()
}
