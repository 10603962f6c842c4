// Package cmd provides the command-line interface for enersim.
package cmd

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "enersim",
	Short: "enersim simulates household energy systems timestep by timestep.",
	Long: `enersim simulates household energy systems timestep by timestep. ` +
		`It couples weather, occupancy, heat pump, storage, PV, and battery ` +
		`components and records every output value of every timestep.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	loadDotEnv()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadDotEnv reads an optional .env file for defaults such as the profile
// cache directory. A missing file is fine.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot read .env file: %v", err)
	}
}
