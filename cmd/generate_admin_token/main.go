package main

import (
	"flag"
	"fmt"
	"log"

	"frota-backend/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	municipalityID := flag.Uint("municipality", 0, "ID муниципалитета для токена")
	flag.Parse()

	if *municipalityID == 0 {
		log.Fatal("Укажите -municipality с ID муниципалитета")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используем переменные окружения")
	}

	tokenString, err := utils.GenerateAdminJWT(uint(*municipalityID))
	if err != nil {
		log.Fatalf("Error generating admin token: %v", err)
	}

	fmt.Printf("Generated admin token: %s\n", tokenString)
}
