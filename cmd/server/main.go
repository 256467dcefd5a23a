// Package main is the entry point for the retroexport API server
package main

import (
	"flag"
	"fmt"
	"os"

	"retroexport/pkg/api"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	flag.Parse()

	fmt.Printf("Starting retroexport API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
