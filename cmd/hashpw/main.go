// Command hashpw prints the argon2id hash for a password, for seeding
// admin_users rows.
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/scanperks/backend/internal/services"
	"github.com/spf13/viper"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(2)
	}

	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		log.Fatalf("salt generation failed: %v", err)
	}

	fmt.Println(services.HashPassword(os.Args[1], salt))
}
