/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "offer-parser",
	Short: "Watch marketplace chats for matching sale offers",
	Long:  "Monitors configured Telegram chats, extracts structured sale offers from free-text messages, and sends reservation inquiries to sellers of matching items.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// A local .env is optional; variables already set always win.
	cobra.OnInitialize(func() {
		_ = godotenv.Load()
	})
}
