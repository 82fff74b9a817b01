package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/villarent/reservation-api/internal/utils"
)

func main() {
	size := flag.Int("bytes", 32, "random bytes per secret")
	flag.Parse()

	secrets, err := utils.GenerateSecrets(*size, utils.SecretNames...)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("# Add these to your .env file. Never commit them.")
	for _, name := range utils.SecretNames {
		fmt.Printf("%s=%s\n", name, secrets[name])
	}
}
