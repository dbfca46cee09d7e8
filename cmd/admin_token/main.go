package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"bets_bot/internal/service"
)

// Issues a 24h admin API token for the given Telegram id.
func main() {
	tgID := flag.Int64("tg-id", 0, "admin telegram id")
	flag.Parse()

	if *tgID == 0 {
		log.Fatal("usage: admin_token -tg-id <telegram id>")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	service.InitJWT(secret)
	token, err := service.GenerateJWT(*tgID)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
