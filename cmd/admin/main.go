package main

import (
	"fmt"
	"log"
	"os"

	"civicbot/backend/internal/api/handler"
	"civicbot/backend/internal/config"
	"civicbot/backend/internal/models"
	"civicbot/backend/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	if len(os.Args) < 2 {
		usage()
	}

	command := os.Args[1]
	switch command {
	case "list":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin list <free|active|done>")
			os.Exit(1)
		}
		listComplaints(openStorage(), os.Args[2])
	case "close":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close <complaint_id>")
			os.Exit(1)
		}
		id := os.Args[2]
		if err := openStorage().SetStatus(id, models.StatusClosed); err != nil {
			log.Fatalf("Error closing complaint: %v", err)
		}
		fmt.Printf("Complaint %s has been closed.\n", id)
	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <subject>")
			os.Exit(1)
		}
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Fatal("JWT_SECRET is not set")
		}
		token, err := handler.NewToken([]byte(secret), os.Args[2])
		if err != nil {
			log.Fatalf("Error minting token: %v", err)
		}
		fmt.Println(token)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <list|close|token> [args]")
	os.Exit(1)
}

func openStorage() storage.Storage {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "complaints.db"
	}
	db, err := storage.Open(os.Getenv("DATABASE_URL"), dbPath)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return storage.NewService(db)
}

func listComplaints(s storage.Storage, bucket string) {
	var (
		rows []models.Complaint
		err  error
	)
	switch bucket {
	case "free":
		rows, err = s.ListFree(config.GroupListLimit)
	case "active":
		rows, err = s.ListInProgress(config.GroupListLimit)
	case "done":
		rows, err = s.ListDone(config.GroupListLimit)
	default:
		fmt.Println("Unknown bucket. Use free, active or done.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Error listing complaints: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("No complaints.")
		return
	}
	for _, c := range rows {
		assignee := "-"
		if c.AssigneeID != nil {
			assignee = fmt.Sprintf("%d", *c.AssigneeID)
		}
		fmt.Printf("#%s\t%s\t%s\tassignee=%s\t%s\n",
			c.ID, c.Status, c.Category, assignee, c.Description)
	}
}
